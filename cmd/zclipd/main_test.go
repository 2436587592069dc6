package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFileFlag(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"-device-id", "x"}, ""},
		{"space separated", []string{"-config", "a.yaml", "-device-id", "x"}, "a.yaml"},
		{"equals form", []string{"-config=b.yaml"}, "b.yaml"},
		{"double dash equals form", []string{"--config=c.yaml"}, "c.yaml"},
		{"trailing flag with no value", []string{"-device-id", "x", "-config"}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, configFileFlag(c.args))
		})
	}
}
