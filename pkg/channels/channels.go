// Package channels maps hardware channels to detector sensors.
package channels

import (
	"errors"
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"golang.org/x/exp/slices"
)

var (
	ErrDuplicateAddress = errors.New("duplicate channel address")
	ErrIDCollision      = errors.New("hit id collision")
)

// Unmapped is the sensor id of a channel missing from the map.
const Unmapped = -1

type Address struct {
	Crate   int32
	Slot    int32
	Channel int32
}

func (a Address) String() string {
	return fmt.Sprintf("%d-%d-%d", a.Crate, a.Slot, a.Channel)
}

// ID is the packed id a hit at this address reports.
func (a Address) ID() int {
	return timeframe.Hit{Crate: a.Crate, Slot: a.Slot, Channel: a.Channel}.ID()
}

type Entry struct {
	Crate    int32 `db:"Crate"`
	Slot     int32 `db:"Slot"`
	Channel  int32 `db:"Channel"`
	SensorID int32 `db:"SensorID"`
}

func (e Entry) Address() Address {
	return Address{Crate: e.Crate, Slot: e.Slot, Channel: e.Channel}
}

// ChannelMap is keyed by hardware address. The packed hit id is lossy, so
// two addresses sharing an id are rejected when the map is built.
type ChannelMap struct {
	sensors map[Address]int32
	sorted  []Entry
}

func NewChannelMap(entries []Entry) (*ChannelMap, error) {
	m := &ChannelMap{
		sensors: make(map[Address]int32, len(entries)),
		sorted:  make([]Entry, 0, len(entries)),
	}
	ids := make(map[int]Address, len(entries))
	var errs []error
	for _, entry := range entries {
		addr := entry.Address()
		if _, ok := m.sensors[addr]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateAddress, addr))
			continue
		}
		if other, ok := ids[addr.ID()]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both map to %d", ErrIDCollision, other, addr, addr.ID()))
			continue
		}
		ids[addr.ID()] = addr
		m.sensors[addr] = entry.SensorID
		m.sorted = append(m.sorted, entry)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.SortStableFunc(m.sorted, func(a, b Entry) int {
		return int(a.SensorID) - int(b.SensorID)
	})
	return m, nil
}

// SensorID returns the sensor wired to the channel of hit, or Unmapped.
func (m *ChannelMap) SensorID(hit timeframe.Hit) int32 {
	if m == nil {
		return Unmapped
	}
	sensor, ok := m.sensors[Address{Crate: hit.Crate, Slot: hit.Slot, Channel: hit.Channel}]
	if !ok {
		return Unmapped
	}
	return sensor
}

// Sorted returns the entries ordered by sensor id.
func (m *ChannelMap) Sorted() []Entry {
	if m == nil {
		return nil
	}
	return m.sorted
}

func (m *ChannelMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sensors)
}
