package export

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

// Row is one algorithm's result for one run, flattened for spreadsheets
type Row struct {
	Group            int     `csv:"group"`
	GroupID          string  `csv:"group_id"`
	RunID            string  `csv:"run_id"`
	RunIndex         int     `csv:"run_index"`
	ConfigType       int     `csv:"config_type"`
	CostConfigType   int     `csv:"cost_config_type"`
	VMSchedulingMode string  `csv:"vm_scheduling_mode"`
	L                float64 `csv:"L"`
	S                float64 `csv:"S"`
	PC               float64 `csv:"p_c"`
	PSI1             float64 `csv:"PSI1"`
	PSI2             float64 `csv:"PSI2"`
	Q0               string  `csv:"q0"`
	Algorithm        string  `csv:"algorithm"`
	Fitness          float64 `csv:"fitness"`
	RunTime          float64 `csv:"run_time"`
	Makespan         float64 `csv:"makespan"`
	TotalCost        float64 `csv:"total_cost"`
	ProcessingCost   float64 `csv:"processing_cost"`
	VMCount          int     `csv:"vm_count"`
}

// Rows flattens groups into one row per group, run and algorithm, in
// document order with algorithms sorted by name.
func Rows(groups []models.ExperimentGroup) []Row {
	var rows []Row
	for gi, g := range groups {
		for _, r := range g.Results {
			d := r.Descriptor
			q0 := ""
			if d.Q0 != nil {
				q0 = strconv.FormatFloat(*d.Q0, 'f', -1, 64)
			}
			for _, name := range r.AlgorithmNames() {
				a := r.Algorithms[name]
				rows = append(rows, Row{
					Group:            gi,
					GroupID:          g.ID,
					RunID:            r.RunID,
					RunIndex:         d.Index,
					ConfigType:       d.ConfigType,
					CostConfigType:   d.CostConfigType,
					VMSchedulingMode: d.VMSchedulingMode,
					L:                d.L,
					S:                d.S,
					PC:               d.PC,
					PSI1:             d.PSI1,
					PSI2:             d.PSI2,
					Q0:               q0,
					Algorithm:        name,
					Fitness:          a.Fitness,
					RunTime:          a.RunTime,
					Makespan:         a.Makespan,
					TotalCost:        a.TotalCost,
					ProcessingCost:   a.ProcessingCost,
					VMCount:          a.VMCount,
				})
			}
		}
	}
	return rows
}

// WriteCSV writes rows with a header line
func WriteCSV(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return gocsv.Marshal(rows, w)
}

// ReadCSV parses rows written by WriteCSV
func ReadCSV(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
