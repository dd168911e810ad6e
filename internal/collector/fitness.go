package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

var fitnessLinePattern = regexp.MustCompile(`t\s*=\s*(\d+)\s*,\s*f_best\s*=\s*(-?\d+(?:\.\d*)?(?:[eE][-+]?\d+)?)`)

// ParseFitnessLog reads "t=<int>, f_best=<number>" lines in order. Lines that
// do not match are skipped.
func ParseFitnessLog(r io.Reader) ([]models.FitnessPoint, error) {
	var points []models.FitnessPoint
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := fitnessLinePattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		t, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		points = append(points, models.FitnessPoint{T: t, Fitness: f})
	}
	if err := scanner.Err(); err != nil {
		return points, fmt.Errorf("failed to read fitness log: %w", err)
	}
	return points, nil
}

func readFitnessLog(path string) ([]models.FitnessPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFitnessLog(f)
}

// ReadFitnessLogs returns the series of each named log in dir (<name>.txt).
// A missing log yields an empty series.
func ReadFitnessLogs(dir string, names []string) (map[string][]models.FitnessPoint, error) {
	out := make(map[string][]models.FitnessPoint, len(names))
	for _, name := range names {
		series, err := readFitnessLog(filepath.Join(dir, name+".txt"))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read fitness log %s: %w", name, err)
		}
		if series == nil {
			series = []models.FitnessPoint{}
		}
		out[name] = series
	}
	return out, nil
}
