package models

// StorageTotals is the aggregated ledger across a user's active accounts.
type StorageTotals struct {
	Total        int64
	Used         int64
	AccountCount int64
}

// AccountUsage is the per-account breakdown of the capacity ledger.
type AccountUsage struct {
	ID                        int64   `json:"id"`
	Email                     string  `json:"email"`
	Name                      string  `json:"name"`
	TotalStorage              int64   `json:"total_storage"`
	UsedStorage               int64   `json:"used_storage"`
	AvailableStorage          int64   `json:"available_storage"`
	UsagePercent              float64 `json:"usage_percent"`
	TotalStorageFormatted     string  `json:"total_storage_formatted"`
	UsedStorageFormatted      string  `json:"used_storage_formatted"`
	AvailableStorageFormatted string  `json:"available_storage_formatted"`
}

// StorageStats is the user's pooled storage picture.
type StorageStats struct {
	TotalStorage              int64          `json:"total_storage"`
	UsedStorage               int64          `json:"used_storage"`
	AvailableStorage          int64          `json:"available_storage"`
	UsagePercent              float64        `json:"usage_percent"`
	TotalStorageFormatted     string         `json:"total_storage_formatted"`
	UsedStorageFormatted      string         `json:"used_storage_formatted"`
	AvailableStorageFormatted string         `json:"available_storage_formatted"`
	AccountCount              int64          `json:"account_count"`
	FileCount                 int64          `json:"file_count"`
	FolderCount               int64          `json:"folder_count"`
	Accounts                  []AccountUsage `json:"accounts"`
}
