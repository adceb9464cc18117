// Package captioner generates image captions through an external
// capability, either an OpenAI compatible chat endpoint or a local
// script. Batches run through a bounded worker pool so only a fixed
// number of images is in flight at once.
package captioner

import (
	"context"
	"errors"
	"time"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/api/apitype"
	"taulu.fi/dataset-curator/common/logger"
)

const (
	minConcurrency = 1
	maxConcurrency = 8

	captionProgressName = "caption"
)

// BatchResult is the per-image outcome. Every input path produces exactly
// one result, in input order, whether captioning succeeded or not.
type BatchResult struct {
	path         string
	success      bool
	caption      string
	errorMessage string
}

func (s *BatchResult) Path() string {
	return s.path
}

func (s *BatchResult) Success() bool {
	return s.success
}

func (s *BatchResult) Caption() string {
	return s.caption
}

func (s *BatchResult) ErrorMessage() string {
	return s.errorMessage
}

type BatchCaptioner struct {
	captioner   api.Captioner
	reporter    api.ProgressReporter
	concurrency int
}

func NewBatchCaptioner(captioner api.Captioner, reporter api.ProgressReporter, concurrency int) *BatchCaptioner {
	if concurrency < minConcurrency {
		concurrency = minConcurrency
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}
	return &BatchCaptioner{
		captioner:   captioner,
		reporter:    reporter,
		concurrency: concurrency,
	}
}

type captionJob struct {
	index int
	path  string
}

type captionOutput struct {
	index  int
	result *BatchResult
}

// CaptionBatch captions the given image paths. Results come back in input
// order regardless of which worker finished first. A timeout is retried
// once; any other failure is recorded in the result and the batch moves on.
func (s *BatchCaptioner) CaptionBatch(ctx context.Context, imagePaths []string) []*BatchResult {
	startTime := time.Now()
	expected := len(imagePaths)
	results := make([]*BatchResult, expected)
	if expected == 0 {
		return results
	}

	logger.Info.Printf("Captioning %d images with %d workers...", expected, s.concurrency)
	s.reporter.Update(captionProgressName, 0, expected)

	inputChannel := make(chan *captionJob, expected)
	outputChannel := make(chan *captionOutput)

	// Queue everything up front so workers just drain the channel
	for index, imagePath := range imagePaths {
		inputChannel <- &captionJob{index: index, path: imagePath}
	}
	close(inputChannel)

	for i := 0; i < s.concurrency; i++ {
		go s.captionWorker(ctx, inputChannel, outputChannel)
	}

	var failures = 0
	for processed := 0; processed < expected; processed++ {
		output := <-outputChannel
		results[output.index] = output.result
		if !output.result.success {
			failures++
		}
		s.reporter.Update(captionProgressName, processed+1, expected)
	}

	d := time.Now().Sub(startTime)
	logger.Info.Printf("%d images captioned in %s (%d errors)", expected, d.String(), failures)
	return results
}

func (s *BatchCaptioner) captionWorker(ctx context.Context, inputChannel chan *captionJob, outputChannel chan *captionOutput) {
	for job := range inputChannel {
		outputChannel <- &captionOutput{
			index:  job.index,
			result: s.captionOne(ctx, job.path),
		}
	}
}

func (s *BatchCaptioner) captionOne(ctx context.Context, imagePath string) *BatchResult {
	captionText, err := s.captioner.Caption(ctx, imagePath)
	if err != nil && errors.Is(err, apitype.ErrTimeout) {
		logger.Warn.Printf("Caption timed out, retrying once: %s", imagePath)
		captionText, err = s.captioner.Caption(ctx, imagePath)
	}
	if err != nil {
		return &BatchResult{path: imagePath, errorMessage: err.Error()}
	}
	return &BatchResult{path: imagePath, success: true, caption: captionText}
}
