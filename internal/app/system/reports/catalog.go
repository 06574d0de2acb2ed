package reports

import (
	"errors"
	"strings"
)

// Collection identifies a report's primary collection. The values are the
// names the dashboard has always used; coupons are stored as "couponFRFR".
type Collection string

const (
	Campaigns     Collection = "campaign"
	Coupons       Collection = "couponFRFR"
	Users         Collection = "users"
	Vendors       Collection = "vendors"
	Organizations Collection = "organizations"
)

// Metric names a computation applied per dimension bucket.
type Metric string

const (
	MetricCount           Metric = "count"
	MetricAverageDuration Metric = "average-duration"
	MetricIssuance        Metric = "issuance-count"
	MetricRedemption      Metric = "redemption-count"
)

// Validation errors. They are distinct from read failures so the HTTP layer
// can answer 400.
var (
	ErrUnknownCollection = errors.New("reports: unknown collection")
	ErrUnknownField      = errors.New("reports: unknown field")
	ErrUnknownMetric     = errors.New("reports: unknown metric")
	ErrInvalidWindow     = errors.New("reports: invalid time window")
)

// MetricOption pairs a metric with the label shown in the dashboard.
type MetricOption struct {
	Label  string `json:"label"`
	Metric Metric `json:"metric"`
}

// Dataset describes what can be asked of one collection.
type Dataset struct {
	Name       string         `json:"name"`
	Collection Collection     `json:"collection"`
	Dimensions []string       `json:"dimensions"`
	TimeFields []string       `json:"time_fields,omitempty"`
	Metrics    []MetricOption `json:"metrics"`
}

// Catalog lists every dataset in display order.
var Catalog = []Dataset{
	{
		Name:       "Campaigns",
		Collection: Campaigns,
		Dimensions: []string{"vendorID", "orgID", "campaignName"},
		TimeFields: []string{"validFrom", "validTo"},
		Metrics: []MetricOption{
			{Label: "Count of campaigns", Metric: MetricCount},
			{Label: "Average duration of campaigns", Metric: MetricAverageDuration},
		},
	},
	{
		Name:       "Coupons",
		Collection: Coupons,
		Dimensions: []string{"couponName", "campaignID"},
		Metrics: []MetricOption{
			{Label: "Count of coupons", Metric: MetricCount},
			{Label: "Issuance count", Metric: MetricIssuance},
			{Label: "Redemption count", Metric: MetricRedemption},
		},
	},
	{
		Name:       "Users",
		Collection: Users,
		Dimensions: []string{"username", "email", "role", "organization"},
		TimeFields: []string{"createdAt"},
		Metrics: []MetricOption{
			{Label: "Count of users", Metric: MetricCount},
			{Label: "Issuance count", Metric: MetricIssuance},
			{Label: "Redemption count", Metric: MetricRedemption},
		},
	},
	{
		Name:       "Vendors",
		Collection: Vendors,
		Dimensions: []string{"vendorName", "locationType"},
		Metrics: []MetricOption{
			{Label: "Count of vendors", Metric: MetricCount},
			{Label: "Issuance count", Metric: MetricIssuance},
			{Label: "Redemption count", Metric: MetricRedemption},
		},
	},
	{
		Name:       "Organizations",
		Collection: Organizations,
		Dimensions: []string{"abbreviation", "name"},
		Metrics: []MetricOption{
			{Label: "Count of organizations", Metric: MetricCount},
		},
	},
}

// TopLevelCollections is the set offered on the data explorer page.
var TopLevelCollections = []string{"Campaigns", "Coupons", "Users", "Vendors"}

// LookupDataset resolves a collection by id ("campaign") or display name
// ("Campaigns"), case-insensitively.
func LookupDataset(name string) (Dataset, error) {
	name = strings.TrimSpace(name)
	for _, d := range Catalog {
		if strings.EqualFold(string(d.Collection), name) || strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dataset{}, ErrUnknownCollection
}

// ParseMetric resolves a metric by id ("issuance-count") or by the dataset's
// label ("Issuance count"). It fails when the dataset does not offer it.
func (d Dataset) ParseMetric(s string) (Metric, error) {
	s = strings.TrimSpace(s)
	for _, m := range d.Metrics {
		if strings.EqualFold(string(m.Metric), s) || strings.EqualFold(m.Label, s) {
			return m.Metric, nil
		}
	}
	return "", ErrUnknownMetric
}

// HasMetric reports whether the dataset offers m.
func (d Dataset) HasMetric(m Metric) bool {
	for _, opt := range d.Metrics {
		if opt.Metric == m {
			return true
		}
	}
	return false
}

// HasDimension reports whether field groups this dataset.
func (d Dataset) HasDimension(field string) bool {
	return contains(d.Dimensions, field)
}

// HasTimeField reports whether field is a timestamp of this dataset.
func (d Dataset) HasTimeField(field string) bool {
	return contains(d.TimeFields, field)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
