package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/matcher"
	"github.com/duynguyendang/tripsim/pkg/ontology"
)

var types = []string{"HAVE-PROPERTY", "WANT", "PURCHASE", "PERSON", "PLANT", "GRASS", "GREEN"}

// chain builds n frames linked through a :ARG role, rules with variables and
// nodes with ids. Types are drawn from rng so rules and nodes only partly
// agree.
func chain(rng *rand.Rand, n int, variables bool) []frame.FrameNode {
	id := func(i int) frame.Element {
		if variables {
			return frame.Variable{Name: fmt.Sprintf("?v%d", i)}
		}
		return frame.Term{Value: fmt.Sprintf("V%d", i)}
	}
	out := make([]frame.FrameNode, n)
	for i := range out {
		f := frame.FrameNode{
			Positionals: []frame.Element{frame.Term{Value: "F"}, id(i), frame.Term{Value: types[rng.Intn(len(types))]}},
		}
		if i+1 < len(out) {
			f.KVPairs = []frame.KVPair{{Key: frame.Term{Value: "ARG"}, Value: id(i + 1)}}
		}
		out[i] = f
	}
	return out
}

func hierarchy() *ontology.Hierarchy {
	h, err := ontology.New([]ontology.Type{
		{Name: "ROOT"},
		{Name: "SITUATION-ROOT"},
		{Name: "HAVE-PROPERTY", Parent: "SITUATION-ROOT"},
		{Name: "WANT", Parent: "SITUATION-ROOT"},
		{Name: "PURCHASE", Parent: "SITUATION-ROOT"},
		{Name: "PERSON", Parent: "ROOT"},
		{Name: "PLANT", Parent: "ROOT"},
		{Name: "GRASS", Parent: "PLANT"},
		{Name: "GREEN", Parent: "ROOT"},
	})
	if err != nil {
		log.Fatal(err)
	}
	return h
}

func main() {
	size := flag.Int("size", 24, "frames per rule set and parse")
	workers := flag.Int("workers", 8, "parallel workers for the second run")
	entries := flag.Int("entries", 500, "catalogue entries to store")
	flag.Parse()

	rng := rand.New(rand.NewSource(1))
	rules := frame.RuleSet(chain(rng, *size, true))
	parse := frame.Parse(chain(rng, *size+*size/2, false))
	h := hierarchy()

	// 1. Sequential match
	start := time.Now()
	seq, err := matcher.New(h).Match(context.Background(), rules, parse)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Sequential match took: %v (score %.3f)\n", time.Since(start), seq.Score)

	// 2. Parallel match, same answer expected
	start = time.Now()
	par, err := matcher.New(h, matcher.WithWorkers(*workers)).Match(context.Background(), rules, parse)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Parallel match (%d workers) took: %v (score %.3f)\n", *workers, time.Since(start), par.Score)
	if seq.Score != par.Score || len(seq.Pairs) != len(par.Pairs) {
		log.Fatalf("parallel result differs: %v vs %v", seq.Pairs, par.Pairs)
	}

	// 3. A parse matched against itself
	start = time.Now()
	self, err := matcher.New(h, matcher.WithWorkers(*workers)).Match(context.Background(), parse.AsRuleSet(), parse)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Self match took: %v (score %.3f, %d/%d nodes)\n", time.Since(start), self.Score, len(self.Pairs), len(parse))

	// 4. Catalogue store round trip
	dir, err := os.MkdirTemp("", "tripsim-perf-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	st, err := catalogue.Open(catalogue.DefaultConfig(dir))
	if err != nil {
		log.Fatal(err)
	}
	batch := make([]catalogue.Entry, *entries)
	for i := range batch {
		batch[i] = catalogue.Entry{Description: fmt.Sprintf("template %d", i), Rules: chain(rng, 1+rng.Intn(6), true)}
	}
	start = time.Now()
	if _, err := st.PutAll(batch); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Storing %d entries took: %v\n", *entries, time.Since(start))

	start = time.Now()
	list, err := st.List()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Listing %d entries took: %v\n", len(list), time.Since(start))
	if err := st.Close(); err != nil {
		log.Fatal(err)
	}
}
