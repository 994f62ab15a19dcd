// Command cm4go runs a coupled hydrology simulation from a
// configuration document, wiring together the surfacelayer, subsurface
// and openwater dummy components.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/maseology/cm4go/component"
	"github.com/maseology/cm4go/dummy"
	"github.com/maseology/cm4go/model"
)

func main() {
	configDir := flag.String("dir", ".", "directory containing the configuration document")
	configFile := flag.String("config", "cm4go.yaml", "configuration document filename")
	mode := flag.String("mode", "simulate", "spinup, simulate, or resume")
	resumeTag := flag.String("resume-tag", "run", `frame tag to resume ("run" or "spinup-N"; mode=resume)`)
	resumeAt := flag.String("resume-at", "", "RFC3339 datetime: resume from the latest frame at or before this instant (mode=resume)")
	flag.Parse()

	components := map[component.Category]*component.Component{
		component.SurfaceLayer: dummy.SurfaceLayer(),
		component.SubSurface:   dummy.SubSurface(),
		component.OpenWater:    dummy.OpenWater(),
	}

	m, err := model.FromConfig(*configDir, *configFile, components)
	if err != nil {
		log.Fatalf("cm4go: %v", err)
	}

	switch *mode {
	case "spinup":
		if err := m.SpinUp(); err != nil {
			log.Fatalf("cm4go: spin-up failed: %v", err)
		}
	case "resume":
		if *resumeAt == "" {
			log.Fatalf("cm4go: -resume-at requires an RFC3339 datetime")
		}
		at, err := time.Parse(time.RFC3339, *resumeAt)
		if err != nil {
			log.Fatalf("cm4go: -resume-at: %v", err)
		}
		if err := m.Resume(*resumeTag, at); err != nil {
			log.Fatalf("cm4go: resume failed: %v", err)
		}
	default:
		if err := m.SpinUp(); err != nil {
			log.Fatalf("cm4go: spin-up failed: %v", err)
		}
		if err := m.Simulate(); err != nil {
			log.Fatalf("cm4go: simulation failed: %v", err)
		}
	}

	log.Printf("cm4go: simulation %s complete, output in %s", m.Identifier, m.SavingDirectory)
}
