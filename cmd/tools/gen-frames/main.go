// Command gen-frames generates synthetic LAMMPS-style dump files for testing
// the analysis pipeline without a real simulation.
package main

import (
	"flag"
	"log"

	"github.com/prash-dwivedi/crater.report/internal/dump"
)

func main() {
	output := flag.String("o", "synthetic.dump", "output path")
	frames := flag.Int("n", 50, "number of frames")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	gen := dump.NewSyntheticGenerator(*seed)
	trajectory := make([]*dump.Frame, 0, *frames)
	for i := 0; i < *frames; i++ {
		trajectory = append(trajectory, gen.NextFrame())
		if (i+1)%10 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}

	if err := dump.WriteFile(*output, trajectory); err != nil {
		log.Fatalf("failed to write dump: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}
