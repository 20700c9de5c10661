package db

type Account struct {
	Username string
	Password string
}

type SiteVisit struct {
	ID        int64
	Username  string
	VisitedAt int64
}

type Snapshot struct {
	Username      string
	AcademicJson  string
	BiometricJson string
	FetchedAt     int64
}
