package invoice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStore", func() {
	var (
		tmpDir string
		store  Store
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		store, err = NewLocalStore(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("WriteDocument", func() {
		var (
			relPath string
			doc     *Object
			outPath string
			err     error
		)

		BeforeEach(func() {
			doc = NewObject()
			doc.Set("invoice_number", "INV-1")
			doc.Set("invoice_date", nil)
			relPath = "a.json"
		})

		JustBeforeEach(func() {
			outPath, err = store.WriteDocument(relPath, doc)
		})

		When("writing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the written path", func() {
				Expect(outPath).To(Equal(filepath.Join(tmpDir, "a.json")))
			})

			It("writes pretty-printed JSON with keys in document order", func() {
				data, readErr := os.ReadFile(outPath)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("{\n  \"invoice_number\": \"INV-1\",\n  \"invoice_date\": null\n}\n"))
			})
		})

		When("the relative path has sub-directories", func() {
			BeforeEach(func() {
				relPath = filepath.Join("2024", "march", "a.json")
			})

			It("creates them", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(outPath).To(BeAnExistingFile())
			})
		})

		When("a file blocks the sub-directory path", func() {
			BeforeEach(func() {
				Expect(os.WriteFile(filepath.Join(tmpDir, "2024"), []byte("in the way"), 0644)).To(Succeed())
				relPath = filepath.Join("2024", "a.json")
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
