package internal

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"visitd/internal/models"
	"visitd/internal/persistence/interfaces"
	"visitd/internal/providers"
	"visitd/internal/services"
)

type ReplayReport struct {
	Samples     int            `json:"samples"`
	Accepted    int            `json:"accepted"`
	Filtered    map[string]int `json:"filtered"`
	FirstVisits []string       `json:"firstVisits"`
	NewBadges   []string       `json:"newBadges"`
}

// Replayer feeds a recorded track through the live pipeline: restore the
// snapshot, submit every sample in time order, save.
type Replayer struct {
	visits    services.VisitServiceInterface
	sync      services.SyncServiceInterface
	scheduler interfaces.SchedulerInterface
	logger    providers.Logger
}

func NewReplayer(visits services.VisitServiceInterface, syncService services.SyncServiceInterface, scheduler interfaces.SchedulerInterface, logger providers.Logger) *Replayer {
	return &Replayer{visits: visits, sync: syncService, scheduler: scheduler, logger: logger}
}

// ReadSamples accepts a JSON array of samples or newline-delimited objects.
func ReadSamples(r io.Reader) ([]models.Sample, error) {
	br := bufio.NewReader(r)
	head, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "replay: read")
	}

	if head == '[' {
		var samples []models.Sample
		if err := json.NewDecoder(br).Decode(&samples); err != nil {
			return nil, eris.Wrap(err, "replay: decode sample array")
		}
		return samples, nil
	}

	var samples []models.Sample
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var s models.Sample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, eris.Wrapf(err, "replay: line %d", line)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "replay: scan")
	}
	return samples, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func (rp *Replayer) Run(ctx context.Context, r io.Reader) (ReplayReport, error) {
	report := ReplayReport{Filtered: map[string]int{}, FirstVisits: []string{}, NewBadges: []string{}}

	samples, err := ReadSamples(r)
	if err != nil {
		return report, err
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	if err := rp.scheduler.Restore(); err != nil {
		rp.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := rp.visits.SubmitSample(ctx, s)
		if err != nil {
			return report, eris.Wrapf(err, "replay: sample %d", report.Samples)
		}
		report.Samples++
		if !res.Accepted {
			report.Filtered[res.Reason]++
			continue
		}
		report.Accepted++
		if res.FirstVisit {
			report.FirstVisits = append(report.FirstVisits, res.Detection.Region)
		}
		report.NewBadges = append(report.NewBadges, res.NewBadges...)
	}

	if rp.sync.Enabled() {
		if _, err := rp.sync.Sync(ctx); err != nil {
			rp.logger.Warnf(providers.TypeSync, "Sync after replay failed: %s", err)
		}
	}
	rp.logger.Infof(providers.TypeApp, "Replayed %d samples, %d accepted, %d new regions", report.Samples, report.Accepted, len(report.FirstVisits))
	return report, rp.scheduler.Persist()
}

// Close stops the services. The snapshot was already written by Run.
func (rp *Replayer) Close() {
	rp.sync.Stop()
	rp.visits.Stop()
	rp.scheduler.Stop()
}
