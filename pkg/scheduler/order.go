package scheduler

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// Candidate order policy names
const (
	PolicySupplied    = "supplied"
	PolicyRoundRobin  = "round_robin"
	PolicyLeastLoaded = "least_loaded"
	PolicyShuffle     = "shuffle"
)

// CandidateOrder decides the order in which caregivers are tried for the
// elder at position in the day's demand. Implementations must be
// deterministic for identical inputs.
type CandidateOrder interface {
	Name() string
	Candidates(day string, position int, caregivers []models.Caregiver, tracker *CapacityTracker) []models.Caregiver
}

// OrderByName returns the policy registered under name. The seed is only
// used by the shuffle policy.
func OrderByName(name string, seed int64) (CandidateOrder, error) {
	switch name {
	case "", PolicyLeastLoaded:
		return LeastLoaded{}, nil
	case PolicySupplied:
		return SuppliedOrder{}, nil
	case PolicyRoundRobin:
		return RoundRobin{}, nil
	case PolicyShuffle:
		return SeededShuffle{Seed: seed}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// SuppliedOrder tries caregivers exactly as the roster lists them
type SuppliedOrder struct{}

func (SuppliedOrder) Name() string { return PolicySupplied }

func (SuppliedOrder) Candidates(_ string, _ int, caregivers []models.Caregiver, _ *CapacityTracker) []models.Caregiver {
	return caregivers
}

// RoundRobin starts the scan for the k-th elder at caregiver k mod n
type RoundRobin struct{}

func (RoundRobin) Name() string { return PolicyRoundRobin }

func (RoundRobin) Candidates(_ string, position int, caregivers []models.Caregiver, _ *CapacityTracker) []models.Caregiver {
	n := len(caregivers)
	if n == 0 {
		return nil
	}
	out := make([]models.Caregiver, 0, n)
	offset := position % n
	out = append(out, caregivers[offset:]...)
	out = append(out, caregivers[:offset]...)
	return out
}

// LeastLoaded prefers the caregiver with the fewest elders so far on the
// day, keeping roster order among equals.
type LeastLoaded struct{}

func (LeastLoaded) Name() string { return PolicyLeastLoaded }

func (LeastLoaded) Candidates(day string, _ int, caregivers []models.Caregiver, tracker *CapacityTracker) []models.Caregiver {
	out := append([]models.Caregiver(nil), caregivers...)
	sort.SliceStable(out, func(i, j int) bool {
		return tracker.Load(out[i].ID, day) < tracker.Load(out[j].ID, day)
	})
	return out
}

// SeededShuffle permutes the roster per elder from a seed, the day and the
// elder's position, so a recorded seed replays the same order.
type SeededShuffle struct {
	Seed int64
}

func (SeededShuffle) Name() string { return PolicyShuffle }

func (s SeededShuffle) Candidates(day string, position int, caregivers []models.Caregiver, _ *CapacityTracker) []models.Caregiver {
	out := append([]models.Caregiver(nil), caregivers...)
	r := rand.New(rand.NewSource(s.Seed ^ int64(hashKey(day)) + int64(position)))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// StatusPolicy picks confirmed or scheduled for a filled record. The choice
// has no effect on constraints.
type StatusPolicy func(elder models.Elder, caregiver models.Caregiver, day string) models.Status

// FixedStatus always returns status
func FixedStatus(status models.Status) StatusPolicy {
	return func(models.Elder, models.Caregiver, string) models.Status {
		return status
	}
}

// ConfirmationRate marks roughly rate of filled records as confirmed,
// decided by a hash of seed, elder and day.
func ConfirmationRate(rate float64, seed int64) StatusPolicy {
	return func(e models.Elder, _ models.Caregiver, day string) models.Status {
		h := hashKey(fmt.Sprintf("%d|%s|%s", seed, e.ID, day))
		if float64(h%10000)/10000.0 < rate {
			return models.StatusConfirmed
		}
		return models.StatusScheduled
	}
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
