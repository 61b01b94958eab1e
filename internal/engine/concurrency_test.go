package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/crewboard/internal/models"
)

// Every phone is requested by every job at once; a worker must end up in at
// most one job's assigned set no matter how the calls interleave.
func TestConcurrentAssignMutualExclusion(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	const (
		workerCount = 8
		jobCount    = 6
	)

	phones := make([]string, 0, workerCount)
	for i := 0; i < workerCount; i++ {
		phone := fmt.Sprintf("+9198000000%02d", i)
		seedWorker(t, store, phone, "mason", true)
		phones = append(phones, phone)
	}
	for i := 0; i < jobCount; i++ {
		seedJob(t, store, fmt.Sprintf("job-%d", i), models.JobStatusOpen)
	}

	var wg conc.WaitGroup
	for i := 0; i < jobCount; i++ {
		jobID := fmt.Sprintf("job-%d", i)
		wg.Go(func() {
			_, err := eng.AssignWorkers(ctx, jobID, phones)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)

	holders := map[string][]string{}
	for _, j := range jobs {
		for _, p := range j.AssignedWorkers {
			holders[p] = append(holders[p], j.ID)
		}
	}
	for phone, jobIDs := range holders {
		assert.Len(t, jobIDs, 1, "phone %s held by %v", phone, jobIDs)
	}

	// Every worker was available, so every phone found exactly one job.
	assert.Len(t, holders, workerCount)
	checkCoupling(t, store)
}

// Assigns race releases and cancellations; the coupling invariants must
// hold once everything settles.
func TestConcurrentAssignAndCancel(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	const rounds = 20

	phone := "+919800000001"
	seedWorker(t, store, phone, "mason", true)
	for i := 0; i < rounds; i++ {
		seedJob(t, store, fmt.Sprintf("job-%d", i), models.JobStatusOpen)
	}

	var wg conc.WaitGroup
	for i := 0; i < rounds; i++ {
		jobID := fmt.Sprintf("job-%d", i)
		wg.Go(func() {
			if _, err := eng.AssignWorkers(ctx, jobID, []string{phone}); err != nil {
				assert.NoError(t, err)
			}
		})
		wg.Go(func() {
			// Releasing a phone the job never held is a no-op by contract.
			assert.NoError(t, eng.ReleaseWorker(ctx, jobID, phone))
		})
	}
	wg.Wait()

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)

	var holdingJobs int
	for _, j := range jobs {
		if j.Holds(phone) {
			holdingJobs++
		}
	}
	assert.LessOrEqual(t, holdingJobs, 1, "phone must never be held by two jobs")
	checkCoupling(t, store)
}

// Concurrent deletes of the same job and assigns into it must not leave a
// worker permanently unavailable with no job referencing it.
func TestConcurrentDeleteAndAssign(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	phone := "+919800000001"
	seedWorker(t, store, phone, "mason", false)
	seedJob(t, store, "job-1", models.JobStatusAssigned, phone)

	var wg conc.WaitGroup
	wg.Go(func() {
		assert.NoError(t, eng.DeleteJob(ctx, "job-1"))
	})
	wg.Go(func() {
		// The job may already be gone; both outcomes are legal.
		_, err := eng.AssignWorkers(ctx, "job-1", []string{phone})
		_ = err
	})
	wg.Wait()

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)

	w, err := store.GetWorkerByPhone(ctx, phone)
	require.NoError(t, err)

	held := false
	for _, j := range jobs {
		if j.Holds(phone) {
			held = true
		}
	}
	assert.Equal(t, held, !w.Available, "availability must mirror membership")
}
