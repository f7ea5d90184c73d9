package widget

// Widget is the only persisted entity of the service. ID doubles as the
// partition key in every store, so it must never change after creation.
type Widget struct {
	ID     string `json:"id" bson:"_id"`
	Weight int    `json:"weight" bson:"weight"`
	Color  string `json:"color" bson:"color"`
}

const (
	ColorRed  = "red"
	ColorBlue = "blue"
)

// ValidColor reports whether c belongs to the closed set of widget colors.
func ValidColor(c string) bool {
	return c == ColorRed || c == ColorBlue
}
