package utils

const ShortSlashDateLayout = "2006/01/02"
const ShortDashDateLayout = "2006-01-02"

const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// ChartColors is the palette used for chart series, in order.
var ChartColors = []string{
	"#80b3ff", // Light Blue
	"#ffa366", // Light Orange
	"#a3d977", // Light Green
	"#ff8080", // Light Red
	"#c285ff", // Light Purple
	"#80e6d4", // Light Teal
	"#808080", // Medium Gray
}

// GetChartColor returns a color from the chart palette, cycling past its end.
func GetChartColor(index int) string {
	return ChartColors[index%len(ChartColors)]
}
