package insights

import (
	"cmp"
	"slices"

	"frameworks/pkg/models"
)

// Delta is a named metric value, usually current minus previous
type Delta struct {
	Name  string
	Value Value
}

// Order is the direction a ranked table is sorted in
type Order int

const (
	Descending Order = iota
	Ascending
)

// Rank sorts deltas in place: defined values first in the given order,
// undefined values last, ties broken by name.
func Rank(deltas []Delta, order Order) []Delta {
	slices.SortStableFunc(deltas, func(a, b Delta) int {
		switch {
		case a.Value.Valid != b.Value.Valid:
			if a.Value.Valid {
				return -1
			}
			return 1
		case a.Value.Valid && a.Value.Float != b.Value.Float:
			if order == Ascending {
				return cmp.Compare(a.Value.Float, b.Value.Float)
			}
			return cmp.Compare(b.Value.Float, a.Value.Float)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return deltas
}

// Change computes mean(current) - mean(previous) of metric for every common dimension
func (p *Partition) Change(metric Metric) []Delta {
	out := make([]Delta, 0, len(p.Common))
	for _, dim := range p.Common {
		cur := MeanOf(ForDimension(p.Current, dim), metric)
		prev := MeanOf(ForDimension(p.Previous, dim), metric)
		out = append(out, Delta{Name: dim, Value: cur.Sub(prev)})
	}
	return out
}

// Snapshot reports the current-period mean of metric for every current dimension
func (p *Partition) Snapshot(metric Metric) []Delta {
	dims := p.CurrentDimensions()
	out := make([]Delta, 0, len(dims))
	for _, dim := range dims {
		out = append(out, Delta{Name: dim, Value: MeanOf(ForDimension(p.Current, dim), metric)})
	}
	return out
}

// RequestsComparison summarises request traffic between two periods
type RequestsComparison struct {
	Periods           PeriodPair
	DurationIncrease  []Delta
	SuccessRateChange []Delta
	SessionsChange    []Delta
	LowestSuccessRate []Delta
	SlowestHosts      []Delta
	NewHosts          []string
}

// CompareRequests ranks hosts by how their latency and success rate moved
func CompareRequests(rows []models.BucketRow) (*RequestsComparison, error) {
	p, err := Split(rows)
	if err != nil {
		return nil, err
	}

	return &RequestsComparison{
		Periods:           p.Periods,
		DurationIncrease:  Rank(p.Change(Duration), Descending),
		SuccessRateChange: Rank(p.Change(SuccessRate), Ascending),
		SessionsChange:    Rank(p.Change(Sessions), Descending),
		LowestSuccessRate: Rank(p.Snapshot(SuccessRate), Ascending),
		SlowestHosts:      Rank(p.Snapshot(Duration), Descending),
		NewHosts:          nonNil(p.New),
	}, nil
}

// ErrorsComparison summarises error counts between two periods
type ErrorsComparison struct {
	Periods PeriodPair
	// Share is the fraction of current-period error sessions per error name
	Share     []Delta
	Increase  []Delta
	NewErrors []string
	Rows      []models.BucketRow
}

// CompareErrors reports each error's share of the current period and how common errors grew
func CompareErrors(rows []models.BucketRow) (*ErrorsComparison, error) {
	p, err := Split(rows)
	if err != nil {
		return nil, err
	}

	total := SumOf(p.Current, Sessions)
	dims := p.CurrentDimensions()
	share := make([]Delta, 0, len(dims))
	for _, dim := range dims {
		share = append(share, Delta{Name: dim, Value: Ratio(SumOf(ForDimension(p.Current, dim), Sessions), total)})
	}

	increase := make([]Delta, 0, len(p.Common))
	for _, dim := range p.Common {
		cur := SumOf(ForDimension(p.Current, dim), Sessions)
		prev := SumOf(ForDimension(p.Previous, dim), Sessions)
		increase = append(increase, Delta{Name: dim, Value: cur.Sub(prev)})
	}

	return &ErrorsComparison{
		Periods:   p.Periods,
		Share:     Rank(share, Descending),
		Increase:  Rank(increase, Descending),
		NewErrors: nonNil(p.New),
		Rows:      rows,
	}, nil
}

// ResourceDelta is the per-host CPU and memory movement
type ResourceDelta struct {
	Name           string
	CPU            Value
	Memory         Value
	MemoryRelative Value
}

// ResourcesComparison summarises CPU and heap usage between two periods
type ResourcesComparison struct {
	Periods PeriodPair
	// CPUIncrease is the absolute change of mean CPU across the whole period
	CPUIncrease Value
	// MemoryIncrease is the change of mean heap size relative to the previous period
	MemoryIncrease Value
	Hosts          []ResourceDelta
	NewHosts       []string
}

// CompareResources computes period-wide and per-host CPU and memory changes
func CompareResources(rows []models.BucketRow) (*ResourcesComparison, error) {
	p, err := Split(rows)
	if err != nil {
		return nil, err
	}

	prevMemory := MeanOf(p.Previous, Memory)
	out := &ResourcesComparison{
		Periods:        p.Periods,
		CPUIncrease:    MeanOf(p.Current, CPU).Sub(MeanOf(p.Previous, CPU)),
		MemoryIncrease: Ratio(MeanOf(p.Current, Memory).Sub(prevMemory), prevMemory),
		Hosts:          make([]ResourceDelta, 0, len(p.Common)),
		NewHosts:       nonNil(p.New),
	}

	for _, dim := range p.Common {
		cur, prev := ForDimension(p.Current, dim), ForDimension(p.Previous, dim)
		hostPrevMemory := MeanOf(prev, Memory)
		memory := MeanOf(cur, Memory).Sub(hostPrevMemory)
		out.Hosts = append(out.Hosts, ResourceDelta{
			Name:           dim,
			CPU:            MeanOf(cur, CPU).Sub(MeanOf(prev, CPU)),
			Memory:         memory,
			MemoryRelative: Ratio(memory, hostPrevMemory),
		})
	}

	byMemory := make([]Delta, len(out.Hosts))
	index := make(map[string]ResourceDelta, len(out.Hosts))
	for i, h := range out.Hosts {
		byMemory[i] = Delta{Name: h.Name, Value: h.Memory}
		index[h.Name] = h
	}
	for i, d := range Rank(byMemory, Descending) {
		out.Hosts[i] = index[d.Name]
	}

	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
