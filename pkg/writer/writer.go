// Package writer stores decoded time-frame events in HDF5 tables.
package writer

import (
	"errors"
	"fmt"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"github.com/jlab/timeframe_go/pkg/channels"
	"github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/slices"
)

var logger timeframe.Logger = timeframe.NopLogger{}

func SetLogger(l timeframe.Logger) {
	logger = l
}

// Writer appends events to an HDF5 file laid out as
//
//	/Run/events       one row per event
//	/Run/runInfo      the run number, written once
//	/Hits/banks       one row per roc bank
//	/Hits/hits        one row per hit, with its sensor id
//	/Sensors/channels the channel map, written with the first event
//
// A Writer is not safe for concurrent use.
type Writer struct {
	File         *hdf5.File
	Filename     string
	FirstEvt     bool
	RunNumber    int
	RunGroup     *hdf5.Group
	HitsGroup    *hdf5.Group
	SensorsGroup *hdf5.Group
	EventTable   *hdf5.Dataset
	RunInfoTable *hdf5.Dataset
	BankTable    *hdf5.Dataset
	HitTable     *hdf5.Dataset
	ChannelTable *hdf5.Dataset
	EvtCounter   int
	BankCounter  int
	HitCounter   int

	channelMap *channels.ChannelMap
}

// NewWriter creates filename. channelMap may be nil, in which case every
// hit gets sensor id -1 and the channels of the first event are listed.
func NewWriter(filename string, compressionLevel int, runNumber int, channelMap *channels.ChannelMap) (*Writer, error) {
	logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")

	w := &Writer{Filename: filename, RunNumber: runNumber, channelMap: channelMap}
	var err error
	if w.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if err := w.createTables(compressionLevel); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *Writer) createTables(level int) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.HitsGroup, err = createGroup(w.File, "Hits"); err != nil {
		return err
	}
	if w.SensorsGroup, err = createGroup(w.File, "Sensors"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventRowHDF5{}, level); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, level); err != nil {
		return err
	}
	if w.BankTable, err = createTable(w.HitsGroup, "banks", BankRowHDF5{}, level); err != nil {
		return err
	}
	if w.HitTable, err = createTable(w.HitsGroup, "hits", HitRowHDF5{}, level); err != nil {
		return err
	}
	if w.ChannelTable, err = createTable(w.SensorsGroup, "channels", ChannelMappingHDF5{}, level); err != nil {
		return err
	}
	return nil
}

func (w *Writer) WriteEvent(event *timeframe.Event) error {
	if !w.FirstEvt {
		runInfo := []RunInfoHDF5{{run_number: int32(w.RunNumber)}}
		if err := writeArrayToTable(w.RunInfoTable, &runInfo, 0); err != nil {
			return fmt.Errorf("error writing run info: %w", err)
		}
		mapping := channelRows(w.channelMap, event)
		if err := writeArrayToTable(w.ChannelTable, &mapping, 0); err != nil {
			return fmt.Errorf("error writing channel mapping: %w", err)
		}
		w.FirstEvt = true
	}

	eventRow := []EventRowHDF5{eventRowFor(event)}
	banks, hits := hitRows(event, w.channelMap)

	if err := writeArrayToTable(w.EventTable, &eventRow, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.EventID, err)
	}
	if err := writeArrayToTable(w.BankTable, &banks, w.BankCounter); err != nil {
		return fmt.Errorf("error writing banks of event %d: %w", event.EventID, err)
	}
	if err := writeArrayToTable(w.HitTable, &hits, w.HitCounter); err != nil {
		return fmt.Errorf("error writing hits of event %d: %w", event.EventID, err)
	}
	w.EvtCounter++
	w.BankCounter += len(banks)
	w.HitCounter += len(hits)
	return nil
}

func eventRowFor(event *timeframe.Event) EventRowHDF5 {
	return EventRowHDF5{
		evt_number:    event.EventID,
		creation_time: event.CreationTime,
		n_slices:      int32(event.TimeSliceCount()),
		n_banks:       int32(event.TotalRocCount()),
		n_hits:        int32(event.TotalHitCount()),
		source:        convertToHdf5String(event.SourceInfo),
	}
}

func hitRows(event *timeframe.Event, channelMap *channels.ChannelMap) ([]BankRowHDF5, []HitRowHDF5) {
	// The arrays MUST be allocated at creation, HDF5 writes from the
	// backing array
	banks := make([]BankRowHDF5, 0, event.TotalRocCount())
	hits := make([]HitRowHDF5, 0, event.TotalHitCount())
	for t, slice := range event.TimeSlices {
		for _, bank := range slice {
			banks = append(banks, BankRowHDF5{
				evt_number:   event.EventID,
				slice:        int32(t),
				roc_id:       bank.RocID,
				frame_number: bank.FrameNumber,
				n_hits:       int32(bank.HitCount()),
				timestamp:    bank.TimeStamp,
			})
			for _, hit := range bank.Hits {
				hits = append(hits, HitRowHDF5{
					evt_number: event.EventID,
					slice:      int32(t),
					roc_id:     bank.RocID,
					crate:      hit.Crate,
					slot:       hit.Slot,
					channel:    hit.Channel,
					charge:     hit.Charge,
					time:       hit.Time,
					sensor_id:  channelMap.SensorID(hit),
				})
			}
		}
	}
	return banks, hits
}

// channelRows lists the channel map ordered by sensor id. Without a map,
// the channels seen in event are listed by hit id with no sensor.
func channelRows(channelMap *channels.ChannelMap, event *timeframe.Event) []ChannelMappingHDF5 {
	if channelMap != nil {
		sorted := channelMap.Sorted()
		rows := make([]ChannelMappingHDF5, len(sorted))
		for i, entry := range sorted {
			rows[i] = ChannelMappingHDF5{
				hit_id:    int32(entry.Address().ID()),
				crate:     entry.Crate,
				slot:      entry.Slot,
				channel:   entry.Channel,
				sensor_id: entry.SensorID,
			}
		}
		return rows
	}

	hits := event.AllHits()
	rows := make([]ChannelMappingHDF5, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, ChannelMappingHDF5{
			hit_id:    int32(hit.ID()),
			crate:     hit.Crate,
			slot:      hit.Slot,
			channel:   hit.Channel,
			sensor_id: channels.Unmapped,
		})
	}
	slices.SortFunc(rows, compareChannels)
	return slices.CompactFunc(rows, func(a, b ChannelMappingHDF5) bool {
		return compareChannels(a, b) == 0
	})
}

func compareChannels(a, b ChannelMappingHDF5) int {
	if a.hit_id != b.hit_id {
		return int(a.hit_id) - int(b.hit_id)
	}
	if a.crate != b.crate {
		return int(a.crate) - int(b.crate)
	}
	if a.slot != b.slot {
		return int(a.slot) - int(b.slot)
	}
	return int(a.channel) - int(b.channel)
}

func (w *Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file: %s", w.Filename), "hdf5writer")
	var errs []error

	tables := []struct {
		name string
		dset *hdf5.Dataset
	}{
		{"event table", w.EventTable},
		{"run info table", w.RunInfoTable},
		{"bank table", w.BankTable},
		{"hit table", w.HitTable},
		{"channel table", w.ChannelTable},
	}
	for _, table := range tables {
		if table.dset == nil {
			continue
		}
		if err := table.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", table.name, err))
		}
	}

	groups := []struct {
		name  string
		group *hdf5.Group
	}{
		{"run group", w.RunGroup},
		{"hits group", w.HitsGroup},
		{"sensors group", w.SensorsGroup},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", g.name, err))
		}
	}

	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	return errors.Join(errs...)
}
