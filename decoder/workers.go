package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	timeframe "github.com/jlab/timeframe_go/pkg"
	"github.com/jlab/timeframe_go/pkg/engines"
	"golang.org/x/sync/errgroup"
)

type WorkerData struct {
	Index int
	Data  []byte
}

type WorkerResult struct {
	Index int
	Event *timeframe.Event
	Err   error
}

// Totals counts what a run did.
type Totals struct {
	Read    int
	Decoded int
	Failed  int
	Hits    int
}

func worker(ctx context.Context, id int, dispatcher *engines.Dispatcher, mimeType string,
	jobs <-chan WorkerData, results chan<- WorkerResult) error {
	for job := range jobs {
		if VerbosityLevel > 2 {
			logger.Info(fmt.Sprintf("Worker %d processing event %d", id, job.Index), "worker")
		}
		result := decodeEvent(ctx, dispatcher, mimeType, job)
		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func decodeEvent(ctx context.Context, dispatcher *engines.Dispatcher, mimeType string, job WorkerData) (result WorkerResult) {
	result.Index = job.Index
	defer func() {
		if r := recover(); r != nil {
			result.Event = nil
			result.Err = fmt.Errorf("decoder recovered from panic on event %d: %v", job.Index, r)
		}
	}()
	result.Event, result.Err = dispatcher.Decode(ctx, mimeType, job.Data)
	return result
}

func sendEventsToWorkers(ctx context.Context, fileReader *FileReader, jobs chan<- WorkerData) (int, error) {
	sent := 0
	for {
		index, data, err := fileReader.getNextEvent()
		if errors.Is(err, io.EOF) {
			return sent, nil
		}
		if err != nil {
			return sent, fmt.Errorf("error reading event %d: %w", index+1, err)
		}
		select {
		case jobs <- WorkerData{Index: index, Data: data}:
			sent++
		case <-ctx.Done():
			return sent, ctx.Err()
		}
	}
}

// runWorkers decodes the frames of fileReader on numWorkers goroutines and
// dispatches the events from the calling goroutine, so engines never run
// concurrently. A failed frame is logged and skipped when discard is set,
// and stops the run otherwise.
func runWorkers(ctx context.Context, fileReader *FileReader, dispatcher *engines.Dispatcher,
	mimeType string, numWorkers int, discard bool) (Totals, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan WorkerData, numWorkers)
	results := make(chan WorkerResult, numWorkers)

	var totals Totals
	g.Go(func() error {
		defer close(jobs)
		sent, err := sendEventsToWorkers(ctx, fileReader, jobs)
		totals.Read = sent
		return err
	})

	var workers errgroup.Group
	for w := 1; w <= numWorkers; w++ {
		id := w
		workers.Go(func() error {
			return worker(ctx, id, dispatcher, mimeType, jobs, results)
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	var runErr error
	for result := range results {
		if result.Err != nil {
			totals.Failed++
			logger.Error(fmt.Errorf("error decoding event %d: %w", result.Index, result.Err).Error())
			if !discard {
				runErr = fmt.Errorf("stopping at event %d: %w", result.Index, result.Err)
				cancel()
				break
			}
			logger.Error(fmt.Sprintf("discarding event %d", result.Index))
			continue
		}
		totals.Decoded++
		totals.Hits += result.Event.TotalHitCount()
		dispatcher.DispatchEvent(ctx, mimeType, result.Event)
	}
	// Drain so that no worker stays blocked after a break.
	for range results {
	}

	err := g.Wait()
	if runErr != nil {
		return totals, runErr
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return totals, err
}
