package model

// Gender represents the student's gender.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// ParentalSupport represents the level of support a student receives at home.
type ParentalSupport string

const (
	ParentalSupportLow    ParentalSupport = "Low"
	ParentalSupportMedium ParentalSupport = "Medium"
	ParentalSupportHigh   ParentalSupport = "High"
)

// StudentRecord is the canonical student shape shared by every data source
// (relational store, CSV snapshot, prediction input).
type StudentRecord struct {
	StudentID                 int             `json:"StudentID"`
	Name                      string          `json:"Name"`
	Gender                    Gender          `json:"Gender"`
	AttendanceRate            float64         `json:"AttendanceRate"`
	StudyHoursPerWeek         float64         `json:"StudyHoursPerWeek"`
	PreviousGrade             float64         `json:"PreviousGrade"`
	ExtracurricularActivities float64         `json:"ExtracurricularActivities"`
	ParentalSupport           ParentalSupport `json:"ParentalSupport"`
	FinalGrade                float64         `json:"FinalGrade"`
	Email                     string          `json:"Email,omitempty"`
}

// StudentInput is the validated request form of a StudentRecord.
type StudentInput struct {
	StudentID                 int             `json:"StudentID" binding:"required,min=1"`
	Name                      string          `json:"Name" binding:"required,min=1,max=100"`
	Gender                    Gender          `json:"Gender" binding:"required,oneof=Male Female"`
	AttendanceRate            float64         `json:"AttendanceRate" binding:"min=0,max=100"`
	StudyHoursPerWeek         float64         `json:"StudyHoursPerWeek" binding:"min=0,max=168"`
	PreviousGrade             float64         `json:"PreviousGrade" binding:"min=0,max=100"`
	ExtracurricularActivities float64         `json:"ExtracurricularActivities" binding:"min=0"`
	ParentalSupport           ParentalSupport `json:"ParentalSupport" binding:"required,oneof=Low Medium High"`
	FinalGrade                float64         `json:"FinalGrade" binding:"min=0,max=100"`
	Email                     string          `json:"Email" binding:"omitempty,email,max=255"`
}

// Record converts the validated input into a StudentRecord.
func (in StudentInput) Record() StudentRecord {
	return StudentRecord{
		StudentID:                 in.StudentID,
		Name:                      in.Name,
		Gender:                    in.Gender,
		AttendanceRate:            in.AttendanceRate,
		StudyHoursPerWeek:         in.StudyHoursPerWeek,
		PreviousGrade:             in.PreviousGrade,
		ExtracurricularActivities: in.ExtracurricularActivities,
		ParentalSupport:           in.ParentalSupport,
		FinalGrade:                in.FinalGrade,
		Email:                     in.Email,
	}
}

// StudentsByIDsRequest is the payload for fetching a set of students with their risks.
type StudentsByIDsRequest struct {
	StudentIDs []int `json:"studentIds" binding:"required,min=1,max=1000,dive,min=1"`
}

// StudentViewQuery holds the optional projection parameters of a student view.
type StudentViewQuery struct {
	View  string `form:"view" binding:"omitempty,oneof=assigned predicted all"`
	Tier  string `form:"tier" binding:"omitempty,risk_tier"`
	Sort  string `form:"sort" binding:"omitempty,max=64"`
	Order string `form:"order" binding:"omitempty,sort_order"`
}
