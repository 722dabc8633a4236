package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/sumonet"
)

var (
	mapFile  = flag.String("f", "simulation/map.net.xml", "SUMO .net.xml road network")
	progress = flag.Bool("progress", true, "show a progress bar while loading")
)

type bounds struct {
	minLat, minLon, maxLat, maxLon float64
}

func boundingBox(nodes []datastructure.Node) bounds {
	b := bounds{minLat: math.Inf(1), minLon: math.Inf(1), maxLat: math.Inf(-1), maxLon: math.Inf(-1)}
	for _, n := range nodes {
		b.minLat = math.Min(b.minLat, n.Lat)
		b.minLon = math.Min(b.minLon, n.Lon)
		b.maxLat = math.Max(b.maxLat, n.Lat)
		b.maxLon = math.Max(b.maxLon, n.Lon)
	}
	return b
}

func main() {
	flag.Parse()
	net, err := sumonet.LoadNetwork(*mapFile, sumonet.Options{ShowProgress: *progress})
	if err != nil {
		log.Fatal(err)
	}

	drivable, named := 0, 0
	for _, e := range net.Edges {
		if e.Drivable {
			drivable++
		}
		if e.Name != "" {
			named++
		}
	}

	fmt.Printf("\nnetwork:        %s\n", *mapFile)
	fmt.Printf("nodes:          %d\n", len(net.Nodes))
	fmt.Printf("edges:          %d (%d drivable, %d named)\n", len(net.Edges), drivable, named)
	fmt.Printf("internal edges: %d (skipped)\n", net.InternalEdgeCount)
	if len(net.Nodes) == 0 {
		return
	}
	b := boundingBox(net.Nodes)
	fmt.Printf("bounding box:   lat [%.6f, %.6f] lon [%.6f, %.6f]\n", b.minLat, b.maxLat, b.minLon, b.maxLon)
}
