package domain

import "time"

type Department struct {
	DepartmentID     string    `json:"id" dynamodbav:"department_id"`
	Name             string    `json:"name" dynamodbav:"name"`
	Code             string    `json:"code" dynamodbav:"code"`
	Description      string    `json:"description,omitempty" dynamodbav:"description"`
	Categories       []string  `json:"categories" dynamodbav:"categories"`
	ContactEmail     string    `json:"contact_email,omitempty" dynamodbav:"contact_email"`
	ContactPhone     string    `json:"contact_phone,omitempty" dynamodbav:"contact_phone"`
	HeadUserID       string    `json:"head_user_id,omitempty" dynamodbav:"head_user_id"`
	WorkloadCapacity int       `json:"workload_capacity" dynamodbav:"workload_capacity"`
	CurrentWorkload  int       `json:"current_workload" dynamodbav:"current_workload"`
	Active           bool      `json:"active" dynamodbav:"active"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}

type DepartmentInput struct {
	Name             string   `json:"name" validate:"required"`
	Code             string   `json:"code" validate:"required,uppercase"`
	Description      string   `json:"description"`
	Categories       []string `json:"categories" validate:"required,min=1"`
	ContactEmail     string   `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     string   `json:"contact_phone"`
	HeadUserID       string   `json:"head_user_id"`
	WorkloadCapacity *int     `json:"workload_capacity"`
}
