// Package planingest loads contact plans from external collaborators: a CSV
// file on disk (or any io.Reader) and a remote HTTP endpoint. Neither form
// is part of the routing kernel; both exist to get a cgr.Plan into the
// caller's hands.
package planingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/asgard/cgr/internal/cgr"
)

// LoadPlan parses the nine-field contact ingestion format: one row per
// contact, fields `id,from,to,t_start,t_end,owlt,rate_bps,setup_s,residual_bytes`.
// Comment lines (leading '#') and blank lines are ignored. Malformed rows
// are silently skipped; the running skip count is returned alongside the
// plan so the caller can log it.
func LoadPlan(r io.Reader) (cgr.Plan, int, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var plan cgr.Plan
	skipped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		c, ok := parseContactRow(record)
		if !ok {
			skipped++
			continue
		}
		plan = append(plan, c)
	}

	return plan, skipped, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseContactRow(record []string) (cgr.Contact, bool) {
	if len(record) != 9 {
		return cgr.Contact{}, false
	}

	fields := make([]string, len(record))
	for i, f := range record {
		fields[i] = strings.TrimSpace(f)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return cgr.Contact{}, false
	}
	from, err := strconv.Atoi(fields[1])
	if err != nil {
		return cgr.Contact{}, false
	}
	to, err := strconv.Atoi(fields[2])
	if err != nil {
		return cgr.Contact{}, false
	}

	nums := make([]float64, 6)
	for i, f := range fields[3:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return cgr.Contact{}, false
		}
		nums[i] = v
	}

	return cgr.Contact{
		ID:            id,
		From:          from,
		To:            to,
		TStart:        nums[0],
		TEnd:          nums[1],
		OWLT:          nums[2],
		RateBPS:       nums[3],
		SetupS:        nums[4],
		ResidualBytes: nums[5],
	}, true
}
