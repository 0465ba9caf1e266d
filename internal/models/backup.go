package models

// BackupData bundles the six persisted collections into one snapshot payload.
type BackupData struct {
	Students     []Student     `json:"students"`
	Commissions  []Commission  `json:"commissions"`
	Users        []User        `json:"users"`
	Delegates    []Delegate    `json:"delegates"`
	BankAccounts []BankAccount `json:"bankAccounts"`
	Courses      []Course      `json:"courses"`
}

// BackupSnapshot is the on-disk backup document. Importers validate only the
// presence of Name and Data.
type BackupSnapshot struct {
	Name string     `json:"name"`
	Date string     `json:"date"`
	Size int64      `json:"size"`
	Data BackupData `json:"data"`
}

// BackupInfo describes a stored snapshot file without its payload.
type BackupInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url,omitempty"`
}
