package io

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/sphcell/space"
)

const (
	// Column layout of ascii particle files.
	idCol, xCol, yCol, zCol = 0, 1, 2, 3
	vxCol, vyCol, vzCol     = 4, 5, 6
	mCol, hCol, uCol        = 7, 8, 9
	kindCol                 = 10
)

// ParticleRecord is one row of a particle csv file.
type ParticleRecord struct {
	ID   int64  `csv:"id"`
	Kind string `csv:"kind"`

	X  float64 `csv:"x"`
	Y  float64 `csv:"y"`
	Z  float64 `csv:"z"`
	VX float64 `csv:"vx"`
	VY float64 `csv:"vy"`
	VZ float64 `csv:"vz"`

	Mass float64 `csv:"mass"`
	H    float64 `csv:"h"`
	U    float64 `csv:"u"`

	Rho       float64 `csv:"rho"`
	Neighbors int     `csv:"neighbors"`
}

// NewParticleRecord converts p into a csv row.
func NewParticleRecord(p *space.Particle) ParticleRecord {
	return ParticleRecord{
		ID: p.ID, Kind: p.Kind.String(),
		X: p.X.X, Y: p.X.Y, Z: p.X.Z,
		VX: p.V.X, VY: p.V.Y, VZ: p.V.Z,
		Mass: p.Mass, H: p.H, U: p.U,
		Rho: p.Density.Rho, Neighbors: p.Density.Neighbors,
	}
}

// Particle converts a csv row into an active particle. Density columns are
// ignored.
func (rec *ParticleRecord) Particle() (space.Particle, error) {
	kind := space.Gas
	if rec.Kind != "" {
		var err error
		if kind, err = space.ParseKind(rec.Kind); err != nil {
			return space.Particle{}, err
		}
	}

	return space.Particle{
		ID:     rec.ID,
		Kind:   kind,
		X:      r3.Vec{X: rec.X, Y: rec.Y, Z: rec.Z},
		V:      r3.Vec{X: rec.VX, Y: rec.VY, Z: rec.VZ},
		Mass:   rec.Mass,
		H:      rec.H,
		U:      rec.U,
		Active: true,
	}, nil
}

// ReadParticles reads the particles in fname. Files ending in .csv are
// read as csv files with a header, everything else as whitespace separated
// ascii columns.
func ReadParticles(fname string) ([]space.Particle, error) {
	var (
		parts []space.Particle
		err   error
	)
	if strings.HasSuffix(strings.ToLower(fname), ".csv") {
		parts, err = readCSVParticles(fname)
	} else {
		parts, err = readASCIIParticles(fname)
	}
	if err != nil {
		return nil, err
	}

	for i := range parts {
		if parts[i].H <= 0 {
			return nil, fmt.Errorf(
				"Particle %d in '%s' has non-positive smoothing length %g.",
				parts[i].ID, fname, parts[i].H,
			)
		}
	}
	return parts, nil
}

func readCSVParticles(fname string) ([]space.Particle, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records := []*ParticleRecord{}
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("reading '%s': %w", fname, err)
	}

	parts := make([]space.Particle, len(records))
	for i, rec := range records {
		if parts[i], err = rec.Particle(); err != nil {
			return nil, fmt.Errorf("reading '%s': %w", fname, err)
		}
	}
	return parts, nil
}

func readASCIIParticles(fname string) ([]space.Particle, error) {
	n, err := columnCount(fname)
	if err != nil {
		return nil, err
	}

	colIdxs := []int{
		idCol, xCol, yCol, zCol, vxCol, vyCol, vzCol, mCol, hCol, uCol,
	}
	switch {
	case n == kindCol+1:
		colIdxs = append(colIdxs, kindCol)
	case n != kindCol:
		return nil, fmt.Errorf(
			"'%s' has %d columns, but particle files need %d or %d.",
			fname, n, kindCol, kindCol+1,
		)
	}

	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, err
	}

	ids := cols[0]
	parts := make([]space.Particle, len(ids))
	for i := range parts {
		p := &parts[i]
		p.ID = int64(ids[i])
		p.X = r3.Vec{X: cols[1][i], Y: cols[2][i], Z: cols[3][i]}
		p.V = r3.Vec{X: cols[4][i], Y: cols[5][i], Z: cols[6][i]}
		p.Mass, p.H, p.U = cols[7][i], cols[8][i], cols[9][i]
		p.Active = true

		if len(cols) > kindCol {
			k := space.Kind(cols[kindCol][i])
			if k != space.Gas && k != space.Star {
				return nil, fmt.Errorf(
					"Particle %d in '%s' has unknown kind %g.",
					p.ID, fname, cols[kindCol][i],
				)
			}
			p.Kind = k
		}
	}
	return parts, nil
}

// columnCount returns the number of columns on the first line of fname
// which is neither blank nor a comment.
func columnCount(fname string) (int, error) {
	f, err := os.Open(fname)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return len(strings.Fields(line)), nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("'%s' contains no particles.", fname)
}

// WriteParticles writes parts to fname as a csv file, ordered by ID.
func WriteParticles(fname string, parts []space.Particle) error {
	records := make([]ParticleRecord, len(parts))
	for i := range parts {
		records[i] = NewParticleRecord(&parts[i])
	}
	sortRecords(records)

	f, err := os.Create(fname)
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing '%s': %w", fname, err)
	}
	return f.Close()
}

func sortRecords(records []ParticleRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}
