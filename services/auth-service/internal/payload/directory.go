package payload

type CreateUserRequest struct {
	Email     string `json:"email"    validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"fname"    validate:"max=100"`
	LastName  string `json:"lname"    validate:"max=100"`
	Org       string `json:"org"`
	Group     string `json:"group"`
	IsActive  bool   `json:"isactive"`
	IsAdmin   bool   `json:"isadmin"`
}

// UpdateUserRequest changes only the fields present in the body.
type UpdateUserRequest struct {
	Email     *string `json:"email"    validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
	FirstName *string `json:"fname"    validate:"omitempty,max=100"`
	LastName  *string `json:"lname"    validate:"omitempty,max=100"`
	Org       *string `json:"org"`
	Group     *string `json:"group"`
	IsActive  *bool   `json:"isactive"`
	IsAdmin   *bool   `json:"isadmin"`
}

type OrgRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	OrgType     string `json:"orgtype"     validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	IsActive    bool   `json:"isactive"`
}

type OrgTypeRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type GroupRequest struct {
	Name       string   `json:"name"       validate:"required,max=200"`
	Org        string   `json:"org"        validate:"max=200"`
	Privileges []string `json:"privileges" validate:"dive,required,max=200"`
}

type PrivilegeRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}
