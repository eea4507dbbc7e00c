package insights

import "frameworks/pkg/api/lookout"

func metricsOf(ds []Delta) []lookout.Metric {
	out := make([]lookout.Metric, 0, len(ds))
	for _, d := range ds {
		out = append(out, lookout.Metric{Name: d.Name, Value: d.Value.Ptr()})
	}
	return out
}

func periodsOf(p PeriodPair) lookout.Periods {
	return lookout.Periods{Current: p.Current, Previous: p.Previous}
}

// API converts the comparison to its wire form
func (c *RequestsComparison) API() lookout.RequestsComparison {
	return lookout.RequestsComparison{
		Periods:           periodsOf(c.Periods),
		DurationIncrease:  metricsOf(c.DurationIncrease),
		SuccessRateChange: metricsOf(c.SuccessRateChange),
		SessionsChange:    metricsOf(c.SessionsChange),
		LowestSuccessRate: metricsOf(c.LowestSuccessRate),
		SlowestHosts:      metricsOf(c.SlowestHosts),
		NewHosts:          c.NewHosts,
	}
}

// API converts the comparison to its wire form
func (c *ErrorsComparison) API() lookout.ErrorsComparison {
	return lookout.ErrorsComparison{
		Periods:   periodsOf(c.Periods),
		Share:     metricsOf(c.Share),
		Increase:  metricsOf(c.Increase),
		NewErrors: c.NewErrors,
		Rows:      c.Rows,
	}
}

// API converts the comparison to its wire form
func (c *ResourcesComparison) API() lookout.ResourcesComparison {
	hosts := make([]lookout.ResourceHost, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		hosts = append(hosts, lookout.ResourceHost{
			Name:           h.Name,
			CPU:            h.CPU.Ptr(),
			Memory:         h.Memory.Ptr(),
			MemoryRelative: h.MemoryRelative.Ptr(),
		})
	}
	return lookout.ResourcesComparison{
		Periods:        periodsOf(c.Periods),
		CPUIncrease:    c.CPUIncrease.Ptr(),
		MemoryIncrease: c.MemoryIncrease.Ptr(),
		Hosts:          hosts,
		NewHosts:       c.NewHosts,
	}
}
