package employees

// Intent is an employee submit. An empty EditID creates an employee; an
// empty DepartmentID leaves the employee unassigned.
type Intent struct {
	EditID       string `json:"editId" yaml:"editId"`
	EmployeeID   string `json:"employeeId" yaml:"employeeId" validate:"required"`
	UserEmail    string `json:"userEmail" yaml:"userEmail" validate:"required"`
	Position     string `json:"position" yaml:"position" validate:"required"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
	HireDate     string `json:"hireDate" yaml:"hireDate" validate:"omitempty,datetime=2006-01-02"`
}

// Row is one line of the employees table, joined with the account and
// department it references.
type Row struct {
	ID           string `json:"id" yaml:"id"`
	EmployeeID   string `json:"employeeId" yaml:"employeeId"`
	Name         string `json:"name" yaml:"name"`
	UserEmail    string `json:"userEmail" yaml:"userEmail"`
	Position     string `json:"position" yaml:"position"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
	Department   string `json:"department" yaml:"department"`
	HireDate     string `json:"hireDate" yaml:"hireDate"`
}

// DepartmentOption feeds the department picker of the employee form.
type DepartmentOption struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Model struct {
	Rows        []Row              `json:"rows" yaml:"rows"`
	Departments []DepartmentOption `json:"departments" yaml:"departments"`
}
