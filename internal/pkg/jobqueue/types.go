package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendEmail         JobType = "send_email"
	JobTypeReconcileCampaign JobType = "reconcile_campaign"
	JobTypeWeeklySummary     JobType = "weekly_summary"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendEmailJobPayload is one outgoing mail.
type SendEmailJobPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (p SendEmailJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"to":      p.To,
		"subject": p.Subject,
		"body":    p.Body,
	}
}

func SendEmailJobPayloadFromMap(data map[string]interface{}) (*SendEmailJobPayload, error) {
	var payload SendEmailJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// ReconcileCampaignJobPayload names the campaign whose totals get recomputed.
type ReconcileCampaignJobPayload struct {
	CampaignID uint `json:"campaign_id"`
}

func (p ReconcileCampaignJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"campaign_id": p.CampaignID,
	}
}

func ReconcileCampaignJobPayloadFromMap(data map[string]interface{}) (*ReconcileCampaignJobPayload, error) {
	var payload ReconcileCampaignJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// WeeklySummaryJobPayload names the creator who receives a summary.
type WeeklySummaryJobPayload struct {
	CreatorID uint `json:"creator_id"`
}

func (p WeeklySummaryJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"creator_id": p.CreatorID,
	}
}

func WeeklySummaryJobPayloadFromMap(data map[string]interface{}) (*WeeklySummaryJobPayload, error) {
	var payload WeeklySummaryJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// decodePayload round-trips through JSON because payloads come back from
// Redis as generic maps with float64 numbers.
func decodePayload(data map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, out)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
