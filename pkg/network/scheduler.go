package network

import (
	"time"

	"github.com/rustybit-go/rustybit/pkg/network/addrmgr"
	"github.com/rustybit-go/rustybit/pkg/network/payload"
)

// task is one (interval, last-run, action) entry in a Peer's periodic
// schedule. due is checked independently of the interval so the
// "request addresses if we've never heard any" rule can override the
// plain elapsed-time test.
type task struct {
	interval time.Duration
	lastRun  time.Time
	due      func(now time.Time) bool
	action   func() error
}

// scheduler runs a Peer's periodic tasks. It is polled, never ticks on
// its own goroutine, so it shares the Peer's single-threaded serve loop.
type scheduler struct {
	p     *Peer
	tasks []*task
}

func newScheduler(p *Peer) *scheduler {
	s := &scheduler{p: p}
	s.tasks = []*task{
		{interval: pingInterval, action: s.maybeSendPing},
		{interval: pingTimeoutCheck, action: s.checkPingTimeout},
		{interval: announceInterval, action: s.announceAddresses},
		{
			interval: requestAddrInterval,
			action:   s.requestAddresses,
			due: func(now time.Time) bool {
				return p.lastAddrTime.IsZero()
			},
		},
	}
	return s
}

// start seeds every task's lastRun to now, so the first runDue call
// after entering Connected only fires a task once its own interval has
// genuinely elapsed since the connection was established — without
// this, a zero-valued lastRun would make every task look overdue on
// the very first poll, firing Ping/Announce/RequestAddresses seconds
// after handshake instead of after their documented intervals.
// requestAddresses' due override still fires immediately regardless,
// per spec.
func (s *scheduler) start(now time.Time) {
	for _, t := range s.tasks {
		t.lastRun = now
	}
}

// runDue runs every task whose interval has elapsed (or whose due
// override fires), in declaration order.
func (s *scheduler) runDue() error {
	now := time.Now()
	for _, t := range s.tasks {
		elapsed := t.lastRun.IsZero() || now.Sub(t.lastRun) >= t.interval
		forced := t.due != nil && t.due(now)
		if !elapsed && !forced {
			continue
		}
		t.lastRun = now
		if err := t.action(); err != nil {
			return err
		}
	}
	return nil
}

func (s *scheduler) maybeSendPing() error {
	p := s.p
	if p.outstandingPing {
		return nil
	}
	p.outstandingNonce = encodePingNonce(time.Now())
	p.outstandingSentAt = time.Now()
	p.outstandingPing = true
	return p.writeMessage(CmdPing, payload.NewPing(p.outstandingNonce))
}

func (s *scheduler) checkPingTimeout() error {
	p := s.p
	if !p.outstandingPing {
		return nil
	}
	if time.Since(p.outstandingSentAt) > pingTimeoutAfter {
		return ErrPingTimeout
	}
	return nil
}

func (s *scheduler) announceAddresses() error {
	p := s.p
	if p.addrCh == nil {
		return nil
	}
	p.addrCh.Requests <- addrmgr.GetSomeAddresses()
	reply := (<-p.addrCh.Replies).(addrmgr.AddressesReply)
	return p.writeMessage(CmdAddr, &payload.Addr{Addrs: reply.Addrs})
}

func (s *scheduler) requestAddresses() error {
	return s.p.writeMessage(CmdGetAddr, &payload.GetAddr{})
}
