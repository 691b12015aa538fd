package tot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/decode"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
)

// ErrNoSamples is returned when every self-consistency sample failed.
var ErrNoSamples = errors.New("tot: no sample succeeded")

// Cluster groups samples whose normalized final answers share a prefix.
type Cluster struct {
	Key       string   `json:"key"`
	Answer    string   `json:"answer"`
	Votes     int      `json:"votes"`
	Solutions []string `json:"solutions"`
}

// Consensus is the outcome of SelfConsistency.
type Consensus struct {
	Problem        string         `json:"problem"`
	Answer         string         `json:"answer"`
	Representative string         `json:"representative"`
	Confidence     float64        `json:"confidence"`
	Votes          map[string]int `json:"votes"`
	Clusters       []*Cluster     `json:"clusters"`
	Samples        int            `json:"samples"`
	Successful     int            `json:"successful"`
	Duration       time.Duration  `json:"duration"`
}

// ConsistencyOptions tune SelfConsistency.
type ConsistencyOptions struct {
	Diversify   bool
	CallTimeout time.Duration
}

// SelfConsistency generates samples independent solutions in parallel,
// clusters them by normalized final answer and returns the majority
// cluster. Confidence is the winning cluster's votes over samples; the vote
// tally sums to the number of successful samples.
func (e *Engine) SelfConsistency(ctx context.Context, problem string, samples int, opts ...ConsistencyOptions) (*Consensus, error) {
	if err := checkOracle(ctx, e.oracle); err != nil {
		return nil, err
	}
	if samples <= 0 {
		samples = 5
	}
	var o ConsistencyOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	start := time.Now()

	backends := e.backends(o.Diversify)
	solutions := make([]string, samples)
	ok := make([]bool, samples)

	var wg sync.WaitGroup
	for i := 0; i < samples; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			callOpts := []oracle.Option{oracle.WithTemperature(0.8)}
			if len(backends) > 0 {
				callOpts = append(callOpts, oracle.WithBackend(backends[i%len(backends)], ""))
			}
			res, err := e.call(ctx, buildSolvePrompt(problem), o.CallTimeout, callOpts...)
			if err != nil {
				e.logger.Debug().Err(err).Int("sample", i).Msg("sample failed")
				return
			}
			solutions[i] = strings.TrimSpace(res.Text)
			ok[i] = true
		}(i)
	}
	wg.Wait()

	var clusters []*Cluster
	byKey := make(map[string]*Cluster)
	successful := 0
	for i, text := range solutions {
		if !ok[i] {
			continue
		}
		successful++
		answer := decode.FinalAnswer(text)
		key := decode.NormalizeAnswer(answer)
		c, exists := byKey[key]
		if !exists {
			c = &Cluster{Key: key, Answer: answer}
			byKey[key] = c
			clusters = append(clusters, c)
		}
		c.Votes++
		c.Solutions = append(c.Solutions, text)
	}

	res := &Consensus{
		Problem:    problem,
		Votes:      make(map[string]int, len(clusters)),
		Clusters:   clusters,
		Samples:    samples,
		Successful: successful,
	}
	for _, c := range clusters {
		res.Votes[c.Key] = c.Votes
	}

	if successful == 0 {
		res.Duration = time.Since(start)
		e.record("consensus", &Result{Problem: problem, Partial: true, Duration: res.Duration})
		return res, ErrNoSamples
	}

	winner := clusters[0]
	for _, c := range clusters[1:] {
		if c.Votes > winner.Votes {
			winner = c
		}
	}
	res.Answer = winner.Answer
	res.Representative = winner.Solutions[0]
	res.Confidence = float64(winner.Votes) / float64(samples)
	res.Duration = time.Since(start)

	e.record("consensus", &Result{
		Problem:       problem,
		BestScore:     res.Confidence,
		NodesExplored: successful,
		Duration:      res.Duration,
	})
	return res, nil
}
