package config

import "testing"

func validSettings() Settings {
	return Settings{
		ScrollThreshold: 20,
		TriggerKeyCode:  64,
		EmitterBackend:  EmitterXTest,
	}
}

func TestValidateAccepts(t *testing.T) {
	s := validSettings()
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsNonPositiveThreshold(t *testing.T) {
	for _, threshold := range []int{0, -1, -20} {
		s := validSettings()
		s.ScrollThreshold = threshold
		if err := s.Validate(); err == nil {
			t.Errorf("Validate() accepted threshold %d", threshold)
		}
	}
}

func TestValidateRejectsMissingTriggerKey(t *testing.T) {
	s := validSettings()
	s.TriggerKeyCode = 0
	if err := s.Validate(); err == nil {
		t.Error("Validate() accepted zero trigger keycode")
	}
}

func TestValidateRejectsUnknownEmitter(t *testing.T) {
	s := validSettings()
	s.EmitterBackend = "wayland"
	if err := s.Validate(); err == nil {
		t.Error("Validate() accepted unknown emitter backend")
	}
}
