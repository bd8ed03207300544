// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/dalemusser/cityfix/internal/app/store/audit"
)

type listResponse struct {
	Events     []audit.Event `json:"events"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
}

// actionsForCategory returns the actions recorded under a category.
// If category is empty, returns every action.
func actionsForCategory(category string) []string {
	assignmentActions := []string{
		audit.ActionComplaintAssigned,
	}

	adminActions := []string{
		audit.ActionZoneCreated,
		audit.ActionZoneUpdated,
		audit.ActionZoneDeleted,
		audit.ActionZoneAttached,
		audit.ActionWorkerCreated,
		audit.ActionWorkerAvailability,
		audit.ActionCityCreated,
	}

	switch category {
	case audit.CategoryAssignment:
		return assignmentActions
	case audit.CategoryAdmin:
		return adminActions
	case "":
		all := make([]string, 0, len(assignmentActions)+len(adminActions))
		all = append(all, assignmentActions...)
		all = append(all, adminActions...)
		return all
	default:
		return nil
	}
}

func knownAction(category, action string) bool {
	for _, a := range actionsForCategory(category) {
		if a == action {
			return true
		}
	}
	return false
}
