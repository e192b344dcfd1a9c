package models

import "time"

// JobStatus is the lifecycle state of a Job.
type JobStatus int

const (
	JobCancelled JobStatus = 0 // expired or replaced by a newer job
	JobPending   JobStatus = 1 // waiting for a free-text reply
	JobDone      JobStatus = 2 // reply accepted
)

func (s JobStatus) String() string {
	switch s {
	case JobCancelled:
		return "cancelled"
	case JobPending:
		return "pending"
	case JobDone:
		return "done"
	default:
		return "unknown"
	}
}

// JobAction names the question a pending Job is waiting an answer for.
type JobAction string

const (
	JobEnterAccessToken         JobAction = "enterAccessToken"
	JobEnterWalletName          JobAction = "enterWalletName"
	JobEnterWalletPrivateKey    JobAction = "enterWalletPrivateKey"
	JobImportCredentials        JobAction = "importCredentials"
	JobUpdateCredential         JobAction = "updateCredential"
	JobImportDefiWallets        JobAction = "importDefiWallets"
	JobUpdateDefiWallet         JobAction = "updateDefiWallet"
	JobUpdateWalletOfDefiWallet JobAction = "updateWalletOfDefiWallet"
	JobUpdateProfile            JobAction = "updateProfile"
)

// Job is a persisted "awaiting a free-text answer" interaction.
// Payload is a JSON document owned by the handler of Action.
// Cleanup holds message ids to delete once the job is answered.
type Job struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"ownerId"`
	Action    JobAction `json:"action"`
	Status    JobStatus `json:"status"`
	Payload   string    `json:"payload"`
	Cleanup   []int     `json:"cleanup"`
	CreatedAt time.Time `json:"createdAt"`
}
