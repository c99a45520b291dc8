package lf

import (
	"strings"

	"github.com/buger/jsonparser"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
)

// ParseJSON reads the TRIPS web parser's JSON logical form: an array of
// objects mapping node ids to
//
//	{"indicator": "THE", "word": "GRASS", "type": "PLANT", "roles": {...}}
//
// Object members that are not objects (the parser adds "root" and similar
// markers) are ignored. Role values starting with '#' reference another node
// by id, values starting with '?' are variables, and everything else is an
// ontology term. The LEX role repeats the word and is skipped. Node and role
// order follow the document.
func ParseJSON(data []byte) ([]frame.FrameNode, error) {
	var (
		nodes []frame.FrameNode
		first error
	)
	_, err := jsonparser.ArrayEach(data, func(group []byte, typ jsonparser.ValueType, _ int, err error) {
		if first != nil {
			return
		}
		if err != nil {
			first = err
			return
		}
		if typ != jsonparser.Object {
			first = errors.Wrapf(errors.ErrMalformedInput, "expected an object of frames, got %s", typ)
			return
		}
		first = jsonparser.ObjectEach(group, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
			if typ != jsonparser.Object {
				return nil
			}
			n, err := jsonNode(string(key), value)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
			return nil
		})
	})
	if first != nil {
		err = first
	}
	if err != nil {
		if errors.Is(err, errors.ErrMalformedInput) {
			return nil, err
		}
		return nil, errors.Wrapf(errors.ErrMalformedInput, "logical form json: %v", err)
	}
	if len(nodes) == 0 {
		return nil, errors.Wrap(errors.ErrMalformedInput, "logical form json has no frames")
	}
	return nodes, nil
}

func jsonNode(id string, data []byte) (frame.FrameNode, error) {
	var n frame.FrameNode
	indicator, err := jsonparser.GetString(data, "indicator")
	if err != nil {
		return n, errors.Wrapf(errors.ErrMalformedInput, "frame %s: indicator: %v", id, err)
	}
	typ, err := jsonparser.GetString(data, "type")
	if err != nil {
		return n, errors.Wrapf(errors.ErrMalformedInput, "frame %s: type: %v", id, err)
	}

	n.Positionals = []frame.Element{
		frame.Term{Value: normalise(indicator)},
		frame.ParseElement(normalise(id)),
	}
	word, err := jsonparser.GetString(data, "word")
	if err != nil || word == "" {
		n.Positionals = append(n.Positionals, frame.ParseElement(normalise(typ)))
	} else {
		n.TypeWord = []frame.Element{
			frame.ParseElement(normalise(typ)),
			frame.ParseElement(normalise(word)),
		}
	}

	err = jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		role := string(key)
		if role == "LEX" {
			return nil
		}
		if vt != jsonparser.String {
			return errors.Wrapf(errors.ErrMalformedInput, "frame %s: role %s is %s, want string", id, role, vt)
		}
		raw, err := jsonparser.ParseString(value)
		if err != nil {
			return errors.Wrapf(errors.ErrMalformedInput, "frame %s: role %s: %v", id, role, err)
		}
		n.KVPairs = append(n.KVPairs, frame.KVPair{
			Key:   frame.Term{Value: role},
			Value: roleElement(raw),
		})
		return nil
	}, "roles")
	if err != nil && err != jsonparser.KeyPathNotFoundError {
		return n, err
	}

	if err := n.Validate(); err != nil {
		return n, err
	}
	return n, nil
}

func roleElement(raw string) frame.Element {
	switch {
	case strings.HasPrefix(raw, "#"):
		return frame.Term{Value: normalise(raw[1:])}
	case strings.HasPrefix(raw, "?"):
		return frame.Variable{Name: raw}
	default:
		return frame.Term{Value: normalise(raw)}
	}
}
