package departments

// Intent is a department submit. An empty EditID creates a department.
type Intent struct {
	EditID      string `json:"editId" yaml:"editId"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// Row is one line of the departments table.
type Row struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Employees   int    `json:"employees" yaml:"employees"`
}

type Model struct {
	Rows []Row `json:"rows" yaml:"rows"`
}
