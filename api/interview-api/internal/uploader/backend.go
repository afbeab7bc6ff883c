// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_uploader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hireloopai/pkg/commons"
	"github.com/hireloopai/pkg/utils"
)

const (
	presignPath = "/recordings/presigned-url"
	confirmPath = "/recordings/confirm-upload"

	// Presign and confirm are small metadata requests; the ambient
	// client timeout is enough.
	backendTimeout = 30 * time.Second
)

// backendClient talks to the recruiting backend's recording endpoints.
type backendClient struct {
	rest   *resty.Client
	logger commons.Logger
}

func newBackendClient(baseURL string, logger commons.Logger) *backendClient {
	return &backendClient{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(backendTimeout),
		logger: logger,
	}
}

type presignResponse struct {
	Success      bool   `json:"success"`
	PresignedURL string `json:"presigned_url"`
	ObjectKey    string `json:"object_key"`
	ObjectURL    string `json:"object_url"`
	Bucket       string `json:"bucket"`
	Region       string `json:"region"`
	ContentType  string `json:"content_type"`
	ExpiresIn    int    `json:"expires_in"`
	JobID        string `json:"job_id"`
	CandidateID  string `json:"candidate_id"`
	Timestamp    int64  `json:"timestamp"`
}

type confirmResponse struct {
	Success     bool  `json:"success"`
	RecordingID int64 `json:"recording_id"`
}

// identityForm renders the identity fields every backend call carries.
// Optional round fields are only included when set.
func identityForm(id Identity, size int64, contentType string) map[string]string {
	form := map[string]string{
		"job_id":         id.JobID,
		"candidate_id":   id.CandidateID,
		"timestamp":      strconv.FormatInt(id.Timestamp, 10),
		"file_size":      strconv.FormatInt(size, 10),
		"content_type":   contentType,
		"interview_type": id.InterviewType,
	}
	if id.RoundNumber > 0 {
		form["round_number"] = strconv.Itoa(id.RoundNumber)
	}
	if !utils.IsEmpty(id.RoundToken) {
		form["round_token"] = id.RoundToken
	}
	return form
}

// RequestPresignedTarget obtains the upload destination. Not retried: a
// failure here means a stale identity or a backend outage, both of which
// the caller must see immediately.
func (c *backendClient) RequestPresignedTarget(ctx context.Context, id Identity, size int64, contentType string) (*PresignTarget, error) {
	var body presignResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(identityForm(id, size, contentType)).
		SetResult(&body).
		Post(presignPath)
	if err != nil {
		return nil, fmt.Errorf("presigned url request: %w", err)
	}
	if !resp.IsSuccess() || !body.Success {
		return nil, PresignRequestError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	c.logger.Debugw("presigned upload target issued",
		"objectKey", body.ObjectKey,
		"bucket", body.Bucket,
		"expiresIn", body.ExpiresIn,
	)
	return &PresignTarget{
		PresignedURL: body.PresignedURL,
		ObjectKey:    body.ObjectKey,
		ObjectURL:    body.ObjectURL,
		Bucket:       body.Bucket,
		Region:       body.Region,
		ContentType:  body.ContentType,
		ExpiresIn:    body.ExpiresIn,
	}, nil
}

// ConfirmUpload registers the stored object's metadata with the backend.
// Runs only after the bytes are durably written; a failure is reported
// as a recoverable inconsistency, never silently discarded.
func (c *backendClient) ConfirmUpload(ctx context.Context, target *PresignTarget, id Identity, size int64) (*Receipt, error) {
	form := identityForm(id, size, target.ContentType)
	form["object_key"] = target.ObjectKey
	form["object_url"] = target.ObjectURL

	var body confirmResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetResult(&body).
		Post(confirmPath)
	if err != nil {
		return nil, fmt.Errorf("confirm upload request: %w", err)
	}
	if !resp.IsSuccess() || !body.Success {
		return nil, ConfirmError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	return &Receipt{
		RecordingID: body.RecordingID,
		ObjectKey:   target.ObjectKey,
		ObjectURL:   target.ObjectURL,
		Size:        size,
		ContentType: target.ContentType,
	}, nil
}
