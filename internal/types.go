package internal

// Row is one sign-in record of a batch: the leading timestamp cell and the
// data cells after it, in column order. A blank cell is "".
type Row struct {
	Timestamp string
	Cells     []string
}

// Batch is one already date-filtered set of rows.
type Batch struct {
	Rows []Row
}

type RawEntry struct {
	Text    string
	Section string
}

type ParsedName struct {
	Rank      string
	Surname   string
	FirstName *string
	Original  string
	Section   string
}

type Bucket string

const (
	BucketStaff     Bucket = "staff"
	BucketExecutive Bucket = "executive"
	BucketOther     Bucket = "other"
)

type OutputRecord struct {
	Rank      string `json:"rank"`
	Surname   string `json:"surname"`
	FirstName string `json:"firstName"`
	FullName  string `json:"fullName"`
	Section   string `json:"section"`
}

type GroupCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Statistics struct {
	Sections      []string       `json:"sections"`
	SectionCounts map[string]int `json:"sectionCounts"`
	Groups        []GroupCount   `json:"groups"`
	StaffCount    int            `json:"staffCount"`
	CadetCount    int            `json:"cadetCount"`
	TotalCount    int            `json:"totalCount"`
	UnlistedCount int            `json:"unlistedCount"`
	UnknownCount  int            `json:"unknownCount"`
	SkippedCount  int            `json:"skippedCount"`
}

// GroupCount returns the derived count for name, or 0.
func (s Statistics) GroupCount(name string) int {
	for _, g := range s.Groups {
		if g.Name == name {
			return g.Count
		}
	}
	return 0
}

type SkippedEntry struct {
	Text    string `json:"text"`
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

type Result struct {
	Records []OutputRecord `json:"records"`
	Stats   Statistics     `json:"stats"`
	Skipped []SkippedEntry `json:"skipped"`
}

// FetchedMessage is one raw message pulled from a mailbox.
type FetchedMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
