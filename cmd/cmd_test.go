package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

const minimalConfig = `
http_server:
  port: 8080
database:
  source: "postgres://localhost/access_control"
  max_open_conns: 10
  max_idle_conns: 2
security:
  bcrypt_cost: 10
  access_token_ttl: 24h
observability:
  logging:
    level: info
    format: text
`

func writeConfig(body string) string {
	dir := GinkgoT().TempDir()
	Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600)).To(Succeed())
	return dir
}

var _ = Describe("loadConfig", func() {
	BeforeEach(func() {
		for _, key := range []string{"APP_ENV", "DOCKER_ENV"} {
			if v, ok := os.LookupEnv(key); ok {
				Expect(os.Unsetenv(key)).To(Succeed())
				DeferCleanup(os.Setenv, key, v)
			}
		}
	})

	It("fills defaults for omitted settings", func() {
		cfg, err := loadConfig(writeConfig(minimalConfig))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Security.Cookie.Name).To(Equal("mt_auth"))
		Expect(cfg.Security.Cookie.MaxAge).To(Equal(24 * time.Hour))
		Expect(cfg.Database.IsolationLevel).To(Equal("repeatable_read"))
		Expect(cfg.Cleanup.Schedule).To(Equal("@every 1h"))
		Expect(cfg.Security.LoginRate.PerMinute).To(Equal(10))
		Expect(cfg.Security.LoginRate.Burst).To(Equal(5))
	})

	It("lets environment variables override the file", func() {
		Expect(os.Setenv("ENV_SECURITY_BCRYPT_COST", "12")).To(Succeed())
		DeferCleanup(os.Unsetenv, "ENV_SECURITY_BCRYPT_COST")

		cfg, err := loadConfig(writeConfig(minimalConfig))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.BCryptCost).To(Equal(12))
	})

	It("reads overrides from a .env file next to the config", func() {
		DeferCleanup(os.Unsetenv, "ENV_SECURITY_BCRYPT_COST")
		dir := writeConfig(minimalConfig)
		Expect(os.WriteFile(filepath.Join(dir, ".env"), []byte("ENV_SECURITY_BCRYPT_COST=11\n"), 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Security.BCryptCost).To(Equal(11))
	})

	It("rejects invalid settings", func() {
		_, err := loadConfig(writeConfig(`
database:
  source: "postgres://localhost/access_control"
  max_open_conns: 10
  max_idle_conns: 2
  isolation_level: chaos
security:
  bcrypt_cost: 4
`))
		Expect(err).To(MatchError(ContainSubstring("bcrypt_cost")))
		Expect(err).To(MatchError(ContainSubstring("isolation_level")))
	})

	It("fails without a config file", func() {
		_, err := loadConfig(GinkgoT().TempDir())
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})

var _ = Describe("command tree", func() {
	It("exposes every operational command", func() {
		for _, path := range [][]string{
			{"server"}, {"migrate"}, {"seed"}, {"worker", "tokens"}, {"sessions", "revoke"},
		} {
			found, _, err := rootCmd.Find(path)
			Expect(err).NotTo(HaveOccurred(), path[0])
			Expect(found.Name()).To(Equal(path[len(path)-1]))
		}
	})
})
