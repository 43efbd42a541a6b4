package employee

import (
	"github.com/uptrace/bun"
)

// PhotoDir is the storage prefix every employee photo lives under.
const PhotoDir = "employee_photos/"

type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	ID         int    `bun:"id,pk,autoincrement" json:"id"`
	Name       string `bun:"name,notnull,type:varchar(100)" json:"name"`
	EmployeeID string `bun:"employee_id,unique,notnull,type:varchar(10)" json:"employee_id"`
	Photo      string `bun:"photo,notnull" json:"photo"`
	Age        int    `bun:"age,notnull" json:"age"`
}

// ChartPoint is the projection returned by the chart endpoint.
type ChartPoint struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Filter narrows a Search. Zero value matches everything.
type Filter struct {
	Query string
	Age   *int
}
