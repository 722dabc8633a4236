package sumonet

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"pathsync/pkg/datastructure"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

type xmlNet struct {
	XMLName   xml.Name      `xml:"net"`
	Location  xmlLocation   `xml:"location"`
	Edges     []xmlEdge     `xml:"edge"`
	Junctions []xmlJunction `xml:"junction"`
}

type xmlLocation struct {
	NetOffset     string `xml:"netOffset,attr"`
	ConvBoundary  string `xml:"convBoundary,attr"`
	ProjParameter string `xml:"projParameter,attr"`
}

type xmlEdge struct {
	ID       string    `xml:"id,attr"`
	Name     string    `xml:"name,attr"`
	From     string    `xml:"from,attr"`
	To       string    `xml:"to,attr"`
	Function string    `xml:"function,attr"`
	Shape    string    `xml:"shape,attr"`
	Lanes    []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID       string  `xml:"id,attr"`
	Speed    float64 `xml:"speed,attr"`
	Length   float64 `xml:"length,attr"`
	Shape    string  `xml:"shape,attr"`
	Allow    string  `xml:"allow,attr"`
	Disallow string  `xml:"disallow,attr"`
}

type xmlJunction struct {
	ID   string  `xml:"id,attr"`
	Type string  `xml:"type,attr"`
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
}

// Network is the static description of a SUMO road network plus its projection and spatial index.
type Network struct {
	Nodes             []datastructure.Node
	Edges             []datastructure.Edge
	InternalEdgeCount int

	projection Projection
	index      *EdgeIndex
}

type Options struct {
	ShowProgress bool
}

func LoadNetwork(path string, opts Options) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open network %s: %w", path, err)
	}
	defer f.Close()
	return ParseNetwork(f, opts)
}

func ParseNetwork(r io.Reader, opts Options) (*Network, error) {
	var raw xmlNet
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode network: %w", err)
	}

	proj, err := parseProjection(raw.Location.NetOffset, raw.Location.ProjParameter)
	if err != nil {
		return nil, err
	}

	net := &Network{projection: proj}
	junctionXY := make(map[string]datastructure.Point, len(raw.Junctions))

	bar := newBar(len(raw.Junctions)+len(raw.Edges), "[cyan][1/2][reset] reading junctions and edges...", opts.ShowProgress)
	for _, j := range raw.Junctions {
		bar.Add(1)
		if j.Type == "internal" {
			continue
		}
		junctionXY[j.ID] = datastructure.Point{X: j.X, Y: j.Y}
		lat, lon := proj.XYToLatLon(j.X, j.Y)
		net.Nodes = append(net.Nodes, datastructure.Node{
			ID:  j.ID,
			X:   j.X,
			Y:   j.Y,
			Lat: lat,
			Lon: lon,
		})
	}

	for _, e := range raw.Edges {
		bar.Add(1)
		if e.Function == "internal" || datastructure.IsInternalEdgeID(e.ID) {
			net.InternalEdgeCount++
			continue
		}
		if len(e.Lanes) == 0 {
			continue
		}
		edge := datastructure.Edge{
			ID:     e.ID,
			Name:   e.Name,
			From:   e.From,
			To:     e.To,
			Length: e.Lanes[0].Length,
		}
		for _, l := range e.Lanes {
			edge.SpeedLimit = math.Max(edge.SpeedLimit, l.Speed)
			if laneAllowsPassenger(l) {
				edge.Drivable = true
			}
		}
		shape := e.Shape
		if shape == "" {
			shape = e.Lanes[0].Shape
		}
		edge.Shape, err = parseShape(shape)
		if err != nil {
			return nil, fmt.Errorf("edge %s: %w", e.ID, err)
		}
		if len(edge.Shape) < 2 {
			from, okFrom := junctionXY[e.From]
			to, okTo := junctionXY[e.To]
			if okFrom && okTo {
				edge.Shape = []datastructure.Point{from, to}
			}
		}
		net.Edges = append(net.Edges, edge)
	}
	bar.Finish()

	net.index = NewEdgeIndex(net.Edges, opts.ShowProgress)
	return net, nil
}

func (n *Network) LatLonToXY(lat, lon float64) (float64, float64, error) {
	return n.projection.LatLonToXY(lat, lon)
}

func (n *Network) XYToLatLon(x, y float64) (float64, float64) {
	return n.projection.XYToLatLon(x, y)
}

// NearestEdges returns drivable edges whose shape passes within radius meters of p, nearest first.
func (n *Network) NearestEdges(p datastructure.Point, radius float64) []EdgeHit {
	return n.index.Nearest(p, radius)
}

func laneAllowsPassenger(l xmlLane) bool {
	if l.Allow != "" {
		return hasClass(l.Allow, "passenger") || hasClass(l.Allow, "all")
	}
	if l.Disallow != "" {
		return !hasClass(l.Disallow, "passenger") && !hasClass(l.Disallow, "all")
	}
	return true
}

func hasClass(list, class string) bool {
	for _, c := range strings.Fields(list) {
		if c == class {
			return true
		}
	}
	return false
}

func parseShape(shape string) ([]datastructure.Point, error) {
	pts := []datastructure.Point{}
	for _, pair := range strings.Fields(shape) {
		xy := strings.Split(pair, ",")
		if len(xy) < 2 {
			return nil, fmt.Errorf("invalid shape point %q", pair)
		}
		x, err := strconv.ParseFloat(xy[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shape point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(xy[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shape point %q: %w", pair, err)
		}
		pts = append(pts, datastructure.Point{X: x, Y: y})
	}
	return pts, nil
}

func newBar(max int, desc string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
