package organizations

type Account struct {
	ID     string
	Name   string
	Email  string
	Status string
}
