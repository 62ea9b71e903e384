package listmodel

// Dimension names shared by the shipped schemas.
const (
	DimSearch      = "search"
	DimStatus      = "status"
	DimTarget      = "target"
	DimState       = "state"
	DimSource      = "source"
	DimDestination = "destination"
)

// Tab values for each list.
var (
	ResultCategories = []string{
		All, "Succeeded", "Failed", "Building", "Blocked", "Scheduled",
		"Expansion Error", "Broken", "Disabled",
	}
	WorkerCategories  = []string{All, "Building", "Idle"}
	RequestCategories = []string{All, "New", "Review", "Accepted", "Declined", "Revoked", "Superseded"}
)

// Worker record fields.
var WorkerFields = []string{"id", "hostarch", "status", "project", "package", "target", "started"}

// Submit request record fields.
var RequestFields = []string{"id", "state", "srcproject", "srcpackage", "dstproject", "dstpackage", "comment"}

// WorkerSchema filters workers by status and free text.
func WorkerSchema() Schema {
	return Schema{
		Fields: WorkerFields,
		Dimensions: []Dimension{
			{Name: DimSearch, Kind: Substring, Fields: []string{"id", "hostarch", "project", "package"}},
			{Name: DimStatus, Kind: Exact, Fields: []string{"status"}},
		},
		Category:   DimStatus,
		Categories: WorkerCategories,
	}
}

// RequestSchema filters submit requests by state, source and destination
// project, and free text.
func RequestSchema() Schema {
	return Schema{
		Fields: RequestFields,
		Dimensions: []Dimension{
			{Name: DimSearch, Kind: Substring, Fields: []string{"id", "srcpackage", "dstpackage"}},
			{Name: DimState, Kind: Exact, Fields: []string{"state"}},
			{Name: DimSource, Kind: Exact, Fields: []string{"srcproject"}},
			{Name: DimDestination, Kind: Exact, Fields: []string{"dstproject"}},
		},
		Category:   DimState,
		Categories: RequestCategories,
	}
}

// MatrixSchema filters result rows by package name, target column and
// status. A row has a status when any visible target column carries it.
func MatrixSchema(targets []string) Schema {
	fields := append([]string{PackageField}, targets...)
	cols := append([]string(nil), targets...)
	return Schema{
		Fields: fields,
		Dimensions: []Dimension{
			{Name: DimSearch, Kind: Substring, Fields: []string{PackageField}},
			{Name: DimTarget, Kind: Columns, Fields: cols},
			{Name: DimStatus, Kind: AnyColumn, Fields: cols},
		},
		Category:   DimStatus,
		Categories: ResultCategories,
	}
}
