package model

// Privilege codes checked by middleware.RequirePrivilege.
const (
	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"
	PrivProductDelete = "product:delete"

	PrivMovementView   = "movement:view"
	PrivMovementCreate = "movement:create"

	PrivDashboardView = "dashboard:view"

	PrivImport = "product:import"
	PrivExport = "product:export"

	PrivUserView   = "user:view"
	PrivUserCreate = "user:create"

	PrivPaymentReview = "payment:review"
)
