package github

import "time"

// Workflow run lifecycle values reported in WorkflowRun.Status.
const (
	RunQueued     = "queued"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
)

// ConclusionSuccess is the only conclusion treated as a passing run.
const ConclusionSuccess = "success"

type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	SiteAdmin bool   `json:"site_admin"`
	HTMLURL   string `json:"html_url"`
}

type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type HeadCommit struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Author    CommitAuthor `json:"author"`
	Committer CommitAuthor `json:"committer"`
	Timestamp time.Time    `json:"timestamp"`
}

type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Owner       User   `json:"owner"`
	Description string `json:"description"`
	Fork        bool   `json:"fork"`
	HTMLURL     string `json:"html_url"`
}

// WorkflowRun is one execution of a GitHub Actions workflow, decoded
// from the "list workflow runs" response. Runs are never mutated after
// decoding; a later poll produces new values.
type WorkflowRun struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DisplayTitle string `json:"display_title"`
	Event        string `json:"event"`
	Status       string `json:"status"` // queued, in_progress, completed (also waiting, requested, pending)

	// Conclusion is empty until Status is completed.
	Conclusion string `json:"conclusion"`

	HeadBranch string `json:"head_branch"`
	HeadSHA    string `json:"head_sha"`
	RunNumber  int    `json:"run_number"`
	RunAttempt int    `json:"run_attempt"`

	Actor           *User       `json:"actor"`
	TriggeringActor *User       `json:"triggering_actor"`
	HeadCommit      *HeadCommit `json:"head_commit"`
	Repository      *Repository `json:"repository"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	RunStartedAt *time.Time `json:"run_started_at"`

	HTMLURL  string `json:"html_url"`
	RerunURL string `json:"rerun_url"`
}

// Succeeded reports whether the run completed with a success conclusion.
func (r WorkflowRun) Succeeded() bool {
	return r.Conclusion == ConclusionSuccess
}

// CommitSHA prefers the head commit id and falls back to head_sha.
func (r WorkflowRun) CommitSHA() string {
	if r.HeadCommit != nil && r.HeadCommit.ID != "" {
		return r.HeadCommit.ID
	}
	return r.HeadSHA
}

type workflowRunsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// DeviceCode is the response of the device authorization endpoint.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"` // seconds
	Interval        int    `json:"interval"`   // seconds
}

// AccessTokenResponse is one poll result from the OAuth token endpoint.
// Exactly one of AccessToken or Error is set.
type AccessTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Interval         int    `json:"interval"`
}

// Device-flow poll errors, as returned in AccessTokenResponse.Error.
const (
	ErrorAuthorizationPending = "authorization_pending"
	ErrorSlowDown             = "slow_down"
	ErrorExpiredToken         = "expired_token"
	ErrorAccessDenied         = "access_denied"
)
