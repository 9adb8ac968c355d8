package network

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustybit-go/rustybit/pkg/network/addrmgr"
	"github.com/rustybit-go/rustybit/pkg/network/metrics"
)

// PeerDiscoverer finds additional peer addresses beyond the
// configured seed list, e.g. via DNS seeds or a hardcoded fallback
// list. No implementation ships in this repo — bootstrap discovery is
// out of this node's scope — but Server accepts one via
// SetDiscoverer so a real discoverer can be plugged in without any
// change to Server's shape.
type PeerDiscoverer interface {
	DiscoverPeers(ctx context.Context, count int) ([]net.Addr, error)
}

// Server is the supervisor: it owns the Address Manager task and spawns
// one Peer task per outbound connection, registering each Peer's
// channel with the manager as the spec requires.
type Server struct {
	cfg Config
	log *zap.Logger

	addrMgr    *addrmgr.Manager
	registerCh chan<- addrmgr.Request
	discoverer PeerDiscoverer

	mu    sync.Mutex
	peers map[*Peer]struct{}
}

// NewServer builds a Server ready to Run.
func NewServer(cfg Config, log *zap.Logger) *Server {
	mgr, registerCh := addrmgr.New(log)
	return &Server{
		cfg:        cfg,
		log:        log,
		addrMgr:    mgr,
		registerCh: registerCh,
		peers:      make(map[*Peer]struct{}),
	}
}

// SetDiscoverer installs d as the collaborator Run consults to
// supplement the configured seed list with additional addresses
// before dialing. A nil discoverer (the default) means Run dials
// exactly the given seeds.
func (s *Server) SetDiscoverer(d PeerDiscoverer) {
	s.discoverer = d
}

// Run starts the Address Manager task and dials every address in
// seeds plus, if a PeerDiscoverer is installed, every address it
// returns, blocking until every Peer task has ended (on a fatal error,
// or after ctx is canceled).
func (s *Server) Run(ctx context.Context, seeds []string) {
	go s.addrMgr.Run(ctx)

	addrs := append([]string(nil), seeds...)
	if s.discoverer != nil {
		discovered, err := s.discoverer.DiscoverPeers(ctx, len(seeds))
		if err != nil {
			s.log.Warn("peer discovery failed", zap.Error(err))
		}
		for _, a := range discovered {
			addrs = append(addrs, a.String())
		}
	}

	var wg sync.WaitGroup
	for _, addr := range addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			s.runPeer(ctx, addr)
		}(addr)
	}

	go s.reportPeerCount(ctx)

	wg.Wait()
}

func (s *Server) runPeer(ctx context.Context, addr string) {
	ch := addrmgr.NewChannel()
	s.registerCh <- addrmgr.AddPeerChannel(ch)

	p := NewPeer(s.cfg, s.log.With(zap.String("peer", addr)), ch)
	s.addPeer(p)
	defer s.removePeer(p)

	go func() {
		<-ctx.Done()
		p.Close()
	}()

	if err := p.Run(addr); err != nil {
		s.log.Warn("peer terminated", zap.String("addr", addr), zap.Error(err))
	}
}

func (s *Server) addPeer(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p] = struct{}{}
}

func (s *Server) removePeer(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, p)
}

func (s *Server) connectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for p := range s.peers {
		if p.State() == StateConnected {
			n++
		}
	}
	return n
}

func (s *Server) reportPeerCount(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetPeerCount(s.connectedCount())
		}
	}
}
