// Package addrmgr implements the Address Manager: the single-threaded
// actor that owns this node's table of known peer endpoints. Peers talk
// to it only through a bounded request/reply Channel, never by touching
// its state directly, mirroring the supervisor-owns-shared-state shape
// this codebase uses for its other long-lived components.
package addrmgr

import (
	"context"
	"crypto/rand"
	mrand "math/rand"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/rustybit-go/rustybit/pkg/network/metrics"
	"github.com/rustybit-go/rustybit/pkg/network/payload"
	"github.com/rustybit-go/rustybit/pkg/wire"
)

const (
	// NumBuckets partitions the address table by a secret, keyed hash of
	// each endpoint's /12 IPv4 subnet.
	NumBuckets = 64

	// MaxAddresses is the total number of addresses this node retains.
	MaxAddresses = 2500

	// MaxAddrsPerBucket is the ceiling on any single bucket.
	MaxAddrsPerBucket = 40 // ceil(2500/64)

	// MaxAddrsPerPeer is the share of the table one announcing peer may
	// occupy: 2% of MaxAddresses.
	MaxAddrsPerPeer = 50

	// OldAddressAge is how long an address is kept without a refresh
	// before cleanup evicts it.
	OldAddressAge = 3 * time.Hour

	// CleanupInterval is how often the age sweep runs.
	CleanupInterval = 20 * time.Minute

	someMin, someMax = 5, 25
	manyMin, manyMax = 200, 500
)

type addressEntry struct {
	addr payload.NetAddr
	peer string
}

// Manager owns the bucketed address table and serves it to registered
// Peer channels. It is not safe for concurrent use by design: Run is the
// only goroutine ever allowed to touch its state.
type Manager struct {
	log    *zap.Logger
	secret [256]byte
	rng    *mrand.Rand

	buckets      [NumBuckets]map[payload.Endpoint]addressEntry
	addrsPerPeer map[string]int
	total        int

	registerCh chan Request
	channels   []*Channel
}

// New builds a Manager and returns the registration channel a supervisor
// uses to hand it newly created Peer channels (via AddPeerChannel).
func New(log *zap.Logger) (*Manager, chan<- Request) {
	m := &Manager{
		log:          log,
		addrsPerPeer: make(map[string]int),
		registerCh:   make(chan Request, RequestChannelCap),
	}
	for i := range m.buckets {
		m.buckets[i] = make(map[payload.Endpoint]addressEntry)
	}
	if _, err := rand.Read(m.secret[:]); err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// no degraded mode worth offering beyond logging and continuing
		// with whatever (likely zero) bytes Read managed to produce.
		if log != nil {
			log.Error("crypto/rand unavailable for bucket secret", zap.Error(err))
		}
	}
	seedVal := int64(0)
	for _, b := range m.secret[:8] {
		seedVal = seedVal<<8 | int64(b)
	}
	m.rng = mrand.New(mrand.NewSource(seedVal))
	return m, m.registerCh
}

// Run drives the manager's cooperative loop until ctx is canceled: wait
// on the registration channel, every peer channel's request side, and
// the cleanup ticker, servicing exactly one ready case per iteration.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ticker.C)},
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(m.registerCh)},
		}
		for _, ch := range m.channels {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ch.Requests)})
		}

		chosen, recv, ok := reflect.Select(cases)
		switch chosen {
		case 0:
			return
		case 1:
			m.cleanup()
		case 2:
			if !ok {
				continue
			}
			m.handle(recv.Interface().(Request), nil)
		default:
			peerIdx := chosen - 3
			ch := m.channels[peerIdx]
			if !ok {
				// Peer closed its Requests channel: it is gone. Drop it
				// and restart the scan with a freshly built case list.
				m.channels = append(m.channels[:peerIdx], m.channels[peerIdx+1:]...)
				continue
			}
			m.handle(recv.Interface().(Request), ch)
		}
	}
}

func (m *Manager) handle(req Request, from *Channel) {
	switch r := req.(type) {
	case AddPeerChannelReq:
		m.channels = append(m.channels, r.Channel)
	case AddAddressesReq:
		m.addAddresses(r.PeerIP.String(), r.Addrs)
	case GetSomeAddressesReq:
		if from != nil {
			from.Replies <- AddressesReply{Addrs: m.sample(someMin + m.rng.Intn(someMax-someMin+1))}
		}
	case GetManyAddressesReq:
		if from != nil {
			from.Replies <- AddressesReply{Addrs: m.sample(manyMin + m.rng.Intn(manyMax-manyMin+1))}
		}
	}
}

// addAddresses runs the admission policy for one announced batch: stale
// or non-IPv4 entries are dropped outright; a fresher timestamp for an
// already-known endpoint refreshes it and may re-home it to a different
// peer's quota; a brand-new endpoint is admitted subject to the
// per-peer, per-bucket, and global caps.
func (m *Manager) addAddresses(peerKey string, addrs []payload.NetAddr) {
	for _, na := range addrs {
		if !na.IsValidIPv4() || na.Timestamp.IsZero() || time.Since(na.Timestamp) > OldAddressAge {
			continue
		}
		ep := na.Endpoint()
		idx := m.bucketIndex(ep.IP)
		bucket := m.buckets[idx]

		if existing, ok := bucket[ep]; ok {
			if na.Timestamp.After(existing.addr.Timestamp) {
				m.decrPeer(existing.peer)
				bucket[ep] = addressEntry{addr: na, peer: peerKey}
				m.addrsPerPeer[peerKey]++
				m.total++
			}
			continue
		}

		if m.addrsPerPeer[peerKey] >= MaxAddrsPerPeer {
			return
		}
		if len(bucket) >= MaxAddrsPerBucket || m.total >= MaxAddresses {
			continue
		}

		bucket[ep] = addressEntry{addr: na, peer: peerKey}
		m.addrsPerPeer[peerKey]++
		m.total++
	}
	metrics.SetAddressPoolSize(m.total)
}

func (m *Manager) decrPeer(peerKey string) {
	m.addrsPerPeer[peerKey]--
	if m.addrsPerPeer[peerKey] <= 0 {
		delete(m.addrsPerPeer, peerKey)
	}
	m.total--
}

// cleanup evicts every address whose last refresh is older than
// OldAddressAge. Bucket-pressure eviction is intentionally not performed
// here; admission alone enforces the per-bucket and global caps.
func (m *Manager) cleanup() {
	now := time.Now()
	evicted := 0
	for i := range m.buckets {
		for ep, entry := range m.buckets[i] {
			if now.Sub(entry.addr.Timestamp) > OldAddressAge {
				delete(m.buckets[i], ep)
				m.decrPeer(entry.peer)
				evicted++
			}
		}
	}
	if evicted > 0 && m.log != nil {
		m.log.Debug("address table cleanup", zap.Int("evicted", evicted), zap.Int("remaining", m.total))
	}
	metrics.SetAddressPoolSize(m.total)
}

// bucketIndex hashes the endpoint's /12 subnet (first byte plus the top
// nibble of the second) salted on both sides by this manager's secret,
// so an adversary who cannot read the secret cannot predict or steer
// which bucket a chosen address lands in.
func (m *Manager) bucketIndex(ip [4]byte) int {
	buf := make([]byte, 0, len(m.secret)*2+2)
	buf = append(buf, m.secret[:]...)
	buf = append(buf, ip[0], ip[1]&0xF0)
	buf = append(buf, m.secret[:]...)
	h := wire.Checksum4(buf)
	return int(h % NumBuckets)
}

// sample draws up to n addresses by repeatedly picking a random
// non-empty bucket and taking a few random entries from it, until n are
// collected or the attempt budget (5n) is exhausted.
func (m *Manager) sample(n int) []payload.NetAddr {
	collected := make([]payload.NetAddr, 0, n)
	seen := make(map[payload.Endpoint]bool, n)
	attempts := 5 * n

	for i := 0; i < attempts && len(collected) < n; i++ {
		idx := m.rng.Intn(NumBuckets)
		bucket := m.buckets[idx]
		if len(bucket) == 0 {
			continue
		}
		take := 2 + m.rng.Intn(3)
		if remaining := n - len(collected); take > remaining {
			take = remaining
		}
		keys := make([]payload.Endpoint, 0, len(bucket))
		for k := range bucket {
			keys = append(keys, k)
		}
		m.rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		for _, k := range keys {
			if take <= 0 {
				break
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			collected = append(collected, bucket[k].addr)
			take--
		}
	}

	m.rng.Shuffle(len(collected), func(i, j int) { collected[i], collected[j] = collected[j], collected[i] })
	return collected
}
