package integration

import (
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gbytes"
	. "github.com/onsi/gomega/gexec"

	"github.com/skipor/tiercache/cmd/tiercache/config"
)

var _ = Describe("Integration", func() {
	const SessionWaitTime = 5 * time.Second
	var (
		dir      string
		confFile string
		inConf   config.Config
		args     []string
		session  *Session
	)
	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "tiercache")
		Expect(err).NotTo(HaveOccurred())
		confFile = filepath.Join(dir, "config.json")
		inConf = *config.Default()
		inConf.LogLevel = "debug"
		args = nil
	})
	JustBeforeEach(func() {
		err := ioutil.WriteFile(confFile, config.Marshal(&inConf), 0600)
		Expect(err).NotTo(HaveOccurred())
		command := exec.Command(TiercacheCLI, append([]string{"--config", confFile}, args...)...)
		session, err = Start(command, GinkgoWriter, GinkgoWriter)
		Expect(err).NotTo(HaveOccurred(), "%v", err)
	})
	AfterEach(func() {
		session.Kill().Wait(SessionWaitTime)
		os.RemoveAll(dir)
	})

	It("installs and removes", func() {
		Eventually(session, SessionWaitTime).Should(Exit(0))
		Expect(session.Err).To(Say("All 100 tags are added"))
		Expect(session.Err).To(Say("400 entries are added, 0 rejected"))
		Expect(session.Err).To(Say("Installed: 400 inserted, 0 rejected, 440 references"))
		Expect(session.Err).To(Say("400 entries withdrawn"))
	})

	Context("small cache", func() {
		BeforeEach(func() {
			inConf.Tags = 2
			inConf.Entries = 10
			inConf.Policy = "clock"
		})
		It("rejects overflow", func() {
			Eventually(session, SessionWaitTime).Should(Exit(0))
			Expect(session.Err).To(Say("8 entries are added, 2 rejected"))
			Expect(session.Err).To(Say("8 entries withdrawn"))
		})
	})

	Context("flag overrides config file", func() {
		BeforeEach(func() {
			inConf.Tags = 2
			args = []string{"--tags", "3", "--metrics"}
		})
		It("prints metrics", func() {
			Eventually(session, SessionWaitTime).Should(Exit(0))
			Expect(session.Err).To(Say("All 3 tags are added"))
			Expect(session.Out).To(Say("cache.insert"))
		})
	})

	Context("wait", func() {
		BeforeEach(func() {
			args = []string{"--wait"}
		})
		It("removes on signal", func() {
			Eventually(session.Err, SessionWaitTime).Should(Say("Waiting for signal"))
			Consistently(session).ShouldNot(Exit())
			session.Signal(syscall.SIGTERM)
			Eventually(session, SessionWaitTime).Should(Exit(0))
			Expect(session.Err).To(Say("400 entries withdrawn"))
		})
	})

	Context("write config", func() {
		var written string
		BeforeEach(func() {
			written = filepath.Join(dir, "written.json")
			args = []string{"--slots", "7", "--write-config", written}
		})
		It("merged", func() {
			Eventually(session, SessionWaitTime).Should(Exit(0))
			read := &config.Config{}
			Expect(config.ReadFile(written, read)).To(Succeed())
			expected := inConf
			expected.Slots = 7
			Expect(*read).To(Equal(expected))
		})
	})

	Context("invalid policy", func() {
		BeforeEach(func() {
			inConf.Policy = "random"
		})
		It("fails", func() {
			Eventually(session, SessionWaitTime).Should(Exit(1))
			Expect(session.Err).To(Say("Unknown eviction policy"))
		})
	})
})
