package enums

import "strings"

// StudentType separates kindergarten pupils from extra-course students.
type StudentType string

const (
	StudentTypeKindergarten StudentType = "KINDERGARTEN"
	StudentTypeExtraCourse  StudentType = "EXTRA_COURSE"
)

var validStudentTypes = []StudentType{StudentTypeKindergarten, StudentTypeExtraCourse}

func (s StudentType) IsValid() bool {
	return contains(validStudentTypes, s)
}

// QueryValue is the lowercase form the REST API expects in ?type=.
func (s StudentType) QueryValue() string {
	return strings.ToLower(string(s))
}

func ParseStudentType(value string) (StudentType, error) {
	return parse(validStudentTypes, strings.ToUpper(value), "student type")
}

// StudentLevel is a class level, kindergarten sections first then the
// Moroccan primary and secondary years.
type StudentLevel string

const (
	LevelPetite      StudentLevel = "PETITE"
	LevelMoyenne     StudentLevel = "MOYENNE"
	LevelGrande      StudentLevel = "GRANDE"
	LevelCP1         StudentLevel = "CP1"
	LevelCP2         StudentLevel = "CP2"
	LevelCP3         StudentLevel = "CP3"
	LevelCP4         StudentLevel = "CP4"
	LevelCP5         StudentLevel = "CP5"
	LevelCP6         StudentLevel = "CP6"
	LevelAC1         StudentLevel = "AC1"
	LevelAC2         StudentLevel = "AC2"
	LevelAC3         StudentLevel = "AC3"
	LevelTroncCommun StudentLevel = "TRONC_COMMUN"
	LevelBac1        StudentLevel = "BAC1"
	LevelBac2        StudentLevel = "BAC2"
)

var kindergartenLevels = []StudentLevel{LevelPetite, LevelMoyenne, LevelGrande}

var schoolLevels = []StudentLevel{
	LevelCP1, LevelCP2, LevelCP3, LevelCP4, LevelCP5, LevelCP6,
	LevelAC1, LevelAC2, LevelAC3,
	LevelTroncCommun, LevelBac1, LevelBac2,
}

// LevelsFor returns the levels offered to a student type, in order.
func LevelsFor(t StudentType) []StudentLevel {
	if t == StudentTypeExtraCourse {
		return append([]StudentLevel(nil), schoolLevels...)
	}
	return append([]StudentLevel(nil), kindergartenLevels...)
}

func (l StudentLevel) IsValid() bool {
	return contains(kindergartenLevels, l) || contains(schoolLevels, l)
}

func ParseStudentLevel(value string) (StudentLevel, error) {
	return parse(append(LevelsFor(StudentTypeKindergarten), schoolLevels...), value, "student level")
}

// StudentStatus covers both kindergarten pupils (ACTIVE/LEFT) and
// extra-course students (ACTIVE/INACTIVE).
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusLeft     StudentStatus = "LEFT"
	StudentStatusInactive StudentStatus = "INACTIVE"
)

var validStudentStatuses = []StudentStatus{StudentStatusActive, StudentStatusLeft, StudentStatusInactive}

func StudentStatuses() []StudentStatus {
	return append([]StudentStatus(nil), validStudentStatuses...)
}

func (s StudentStatus) IsValid() bool {
	return contains(validStudentStatuses, s)
}

func ParseStudentStatus(value string) (StudentStatus, error) {
	return parse(validStudentStatuses, value, "student status")
}
