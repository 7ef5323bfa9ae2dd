package pool

import "time"

// healthMonitor periodically checks for execution units that have been
// busy on one task for longer than the stuck threshold.
func (p *Pool) healthMonitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.checkStuckUnits()
		}
	}
}

// checkStuckUnits logs every unit busy past the stuck threshold. Detection
// is observability only: the unit is neither killed nor replaced, since
// the underlying provider call may still return.
func (p *Pool) checkStuckUnits() {
	type stuckUnit struct {
		id      int
		busyFor time.Duration
	}

	now := time.Now()
	var stuck []stuckUnit

	p.mu.Lock()
	for _, u := range p.units {
		if u.busy && now.Sub(u.busySince) > p.cfg.StuckThreshold {
			stuck = append(stuck, stuckUnit{id: u.id, busyFor: now.Sub(u.busySince)})
		}
	}
	p.mu.Unlock()

	for _, s := range stuck {
		p.logger.Warn("execution unit busy beyond stuck threshold",
			"worker_id", s.id,
			"busy_for", s.busyFor.String(),
			"threshold", p.cfg.StuckThreshold.String())
	}
}
