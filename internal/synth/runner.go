package synth

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/catchbarrels/swinglab/internal/domain/model"
	"github.com/catchbarrels/swinglab/internal/domain/pose"
	"github.com/catchbarrels/swinglab/pkg/logger"
)

// Runner defaults.
const (
	defaultPollInterval = 50 * time.Millisecond
	defaultWait         = 30 * time.Second
	defaultTimeout      = 30 * time.Second
)

// RunConfig controls a load run against a live service.
type RunConfig struct {
	BaseURL   string
	Swings    int // swings to submit
	Events    int // batted-ball events in the imported batch, 0 skips the import
	Workers   int
	AthleteID string
	Level     model.Level
	Seed      int64
	Timeout   time.Duration // per request
	Wait      time.Duration // how long to poll for analyses to finish
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	if c.AthleteID == "" {
		c.AthleteID = "synth-" + uuid.NewString()[:8]
	}
	if c.Level == "" {
		c.Level = model.LevelHS
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Wait <= 0 {
		c.Wait = defaultWait
	}
	return c
}

// RunStats summarizes a run.
type RunStats struct {
	Submitted int           `json:"submitted"`
	Accepted  int           `json:"accepted"`
	Duplicate int           `json:"duplicate"`
	Rejected  int           `json:"rejected"` // 429 backpressure
	Errors    int           `json:"errors"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Pending   int           `json:"pending"` // still running when Wait expired
	Snapshot  string        `json:"snapshot,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Wire shapes of the API. They are declared here so the runner only talks
// to the service over HTTP.
type (
	swingBody struct {
		RequestID string          `json:"request_id"`
		AthleteID string          `json:"athlete_id"`
		Fps       float64         `json:"fps"`
		Frames    []pose.RawFrame `json:"frames"`
		Scores    scoresBody      `json:"scores"`
		GoatyBand int             `json:"goaty_band"`
	}
	scoresBody struct {
		Ground float64 `json:"ground"`
		Power  float64 `json:"power"`
		Barrel float64 `json:"barrel"`
	}
	ackBody struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		Duplicate bool   `json:"duplicate"`
	}
	analysisBody struct {
		Status string `json:"status"`
	}
	batchBody struct {
		AthleteID string                  `json:"athlete_id"`
		BatchID   string                  `json:"batch_id"`
		Level     model.Level             `json:"level"`
		Events    []model.BattedBallEvent `json:"events"`
	}
	importBody struct {
		Snapshot struct {
			ID string `json:"id"`
		} `json:"snapshot"`
	}
)

// Run checks service health, submits synthetic swings concurrently, waits
// for their analyses and optionally imports one batted-ball batch.
func Run(ctx context.Context, cfg RunConfig) (RunStats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("synth")
	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	start := time.Now()

	log.Info(ctx, "starting synthetic run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("swings", cfg.Swings),
		logger.Int("events", cfg.Events),
		logger.Int("workers", cfg.Workers),
	)

	if code, err := client.Get(ctx, "/healthz", nil); err != nil || code != http.StatusOK {
		return RunStats{}, fmt.Errorf("service health check failed: status %d: %v", code, err)
	}

	var stats RunStats
	ids := submitSwings(ctx, client, cfg, &stats)
	waitForAnalyses(ctx, client, cfg, ids, &stats)

	if cfg.Events > 0 {
		batch := batchBody{
			AthleteID: cfg.AthleteID,
			BatchID:   "synth-" + strconv.FormatInt(cfg.Seed, 10),
			Level:     cfg.Level,
			Events:    Session(SessionConfig{Events: cfg.Events, Level: cfg.Level, Seed: cfg.Seed}),
		}
		var res importBody
		code, err := client.PostJSON(ctx, "/on-the-ball", batch, &res)
		if err != nil || (code != http.StatusCreated && code != http.StatusOK) {
			return stats, fmt.Errorf("import batch: status %d: %v", code, err)
		}
		stats.Snapshot = res.Snapshot.ID
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "synthetic run finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// submitSwings posts cfg.Swings swings from a pool of workers and returns
// the ids of accepted analyses.
func submitSwings(ctx context.Context, client *HTTPClient, cfg RunConfig, stats *RunStats) []string {
	var (
		submitted, accepted, duplicate, rejected, failed atomic.Int64
		mu                                               sync.Mutex
		ids                                              []string
		wg                                               sync.WaitGroup
	)

	jobs := make(chan int, cfg.Workers*2)
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				var ack ackBody
				code, err := client.PostJSON(ctx, "/swings", newSwingBody(cfg, i), &ack)
				submitted.Add(1)
				switch {
				case err != nil:
					failed.Add(1)
				case code == http.StatusAccepted:
					accepted.Add(1)
					mu.Lock()
					ids = append(ids, ack.ID)
					mu.Unlock()
				case code == http.StatusOK && ack.Duplicate:
					duplicate.Add(1)
				case code == http.StatusTooManyRequests:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}
	for i := 0; i < cfg.Swings; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Rejected = int(rejected.Load())
	stats.Errors = int(failed.Load())
	return ids
}

// waitForAnalyses polls until every id is terminal or cfg.Wait elapses.
func waitForAnalyses(ctx context.Context, client *HTTPClient, cfg RunConfig, ids []string, stats *RunStats) {
	pending := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}
	deadline := time.Now().Add(cfg.Wait)
	for len(pending) > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		for id := range pending {
			var a analysisBody
			if _, err := client.Get(ctx, "/swings/"+id, &a); err != nil {
				continue
			}
			switch a.Status {
			case "complete":
				stats.Completed++
				delete(pending, id)
			case "failed":
				stats.Failed++
				delete(pending, id)
			}
		}
		if len(pending) > 0 {
			time.Sleep(defaultPollInterval)
		}
	}
	stats.Pending = len(pending)
}

func newSwingBody(cfg RunConfig, i int) swingBody {
	seed := cfg.Seed + int64(i)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic synthetic data
	sc := SwingConfig{Frames: 180, Fps: 240, ImpactAt: 60 + rng.Intn(60), Jitter: 0.5, Seed: seed}
	return swingBody{
		RequestID: fmt.Sprintf("synth-%d-%d", cfg.Seed, i),
		AthleteID: cfg.AthleteID,
		Fps:       sc.Fps,
		Frames:    pose.ToRaw(Swing(sc)),
		Scores: scoresBody{
			Ground: score(rng),
			Power:  score(rng),
			Barrel: score(rng),
		},
		GoatyBand: rng.Intn(7) - 3,
	}
}

// score draws a sub-score in [40,95].
func score(rng *rand.Rand) float64 {
	return float64(40 + rng.Intn(56))
}
