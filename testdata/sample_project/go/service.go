package service

import "fmt"

type Service struct {
	name string
}

func NewService(name string) *Service {
	return &Service{name: name}
}

func (s *Service) Run() {
	s.validate()
	fmt.Println(s.name)
}

func (s *Service) validate() {}
