package panel

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tekx/internal/models"
)

// UnnamedService is shown for jobs without a name.
const UnnamedService = "Unnamed Service"

var (
	performedStatuses = map[string]bool{"AUTHORIZED": true, "APPROVED": true, "SOLD": true, "COMPLETED": true}
	declinedStatuses  = map[string]bool{"DECLINED": true, "REJECTED": true, "UNAUTHORIZED": true}
)

// ServiceItem is a classified job with a stable identifier.
type ServiceItem struct {
	ID   string
	Name string
}

// Label returns the name, or [UnnamedService].
func (s ServiceItem) Label() string {
	if s.Name == "" {
		return UnnamedService
	}
	return s.Name
}

// Classification holds the performed and declined lists of a repair order, in job order.
type Classification struct {
	Performed []ServiceItem
	Declined  []ServiceItem
}

// PerformedIDs returns the ids of the performed list.
func (c Classification) PerformedIDs() IDSet { return idsOf(c.Performed) }

// DeclinedIDs returns the ids of the declined list.
func (c Classification) DeclinedIDs() IDSet { return idsOf(c.Declined) }

func idsOf(items []ServiceItem) IDSet {
	s := make(IDSet, len(items))
	for _, it := range items {
		s[it.ID] = struct{}{}
	}
	return s
}

// NormalizeStatus returns the first non-empty of authorizationStatus, approvalStatus and status,
// trimmed and upper-cased.
func NormalizeStatus(job models.Job) string {
	for _, s := range []string{job.AuthorizationStatus, job.ApprovalStatus, job.Status} {
		if s = strings.TrimSpace(s); s != "" {
			return strings.ToUpper(s)
		}
	}
	return ""
}

// IsPerformed reports whether a job was authorized or approved. Explicit flags win over the status.
func IsPerformed(job models.Job) bool {
	if job.Authorized != nil || job.Approved != nil {
		return (job.Authorized != nil && *job.Authorized) || (job.Approved != nil && *job.Approved)
	}
	return performedStatuses[NormalizeStatus(job)]
}

// IsDeclined reports whether a job was declined. The explicit flag wins over the status.
func IsDeclined(job models.Job) bool {
	if job.Declined != nil {
		return *job.Declined
	}
	return declinedStatuses[NormalizeStatus(job)]
}

// Classify splits jobs into performed and declined lists in two independent passes.
//
// Ids come from the job's id, then jobId, then a synthetic "performed-<i>" / "declined-<i>" where
// i is the job's position in the input.
func Classify(jobs []models.Job) Classification {
	return Classification{
		Performed: classifyPass(jobs, IsPerformed, "performed"),
		Declined:  classifyPass(jobs, IsDeclined, "declined"),
	}
}

func classifyPass(jobs []models.Job, match func(models.Job) bool, prefix string) []ServiceItem {
	var items []ServiceItem
	for i, job := range jobs {
		if !match(job) {
			continue
		}
		id := strings.TrimSpace(job.ID.String())
		if id == "" {
			id = strings.TrimSpace(job.JobID.String())
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", prefix, i)
		}
		items = append(items, ServiceItem{ID: id, Name: strings.TrimSpace(job.Name)})
	}
	return items
}
