//go:build ignore

// Manual end-to-end walkthrough against a running server:
//
//	go run scripts/simulate_session.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendJSON(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadFile(name, content string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(content)); err != nil {
		return nil, err
	}
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+"/document/v1/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func main() {
	color.Cyan("=== Document Q&A Session Walkthrough ===\n")

	// 1. Upload a small document
	color.Yellow("\n1. Upload notes.txt")
	body, err := uploadFile("notes.txt", "The capital of France is Paris. The Seine flows through it.")
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	prettyPrint(body)

	var uploadResp struct {
		Data struct {
			Document struct {
				Id string `json:"id"`
			} `json:"document"`
		} `json:"data"`
	}
	json.Unmarshal(body, &uploadResp)
	docId := uploadResp.Data.Document.Id
	color.Green("Document id: %s", docId)

	// 2. Poll the list until the simulated upload settles
	color.Yellow("\n2. Poll document list until uploaded")
	for i := 0; i < 20; i++ {
		time.Sleep(300 * time.Millisecond)
		_, listBody, err := sendJSON("GET", "/document/v1", nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		var listResp struct {
			Data struct {
				Documents []struct {
					Id       string `json:"id"`
					Status   string `json:"status"`
					Progress int    `json:"progress"`
				} `json:"documents"`
			} `json:"data"`
		}
		json.Unmarshal(listBody, &listResp)
		for _, d := range listResp.Data.Documents {
			if d.Id == docId {
				fmt.Printf("  status=%s progress=%d\n", d.Status, d.Progress)
				if d.Status != "uploading" {
					goto uploaded
				}
			}
		}
	}
uploaded:

	// 3. Ask a question
	color.Yellow("\n3. Ask a question")
	_, askBody, err := sendJSON("POST", "/qa/v1/ask", map[string]string{
		"document_id": docId,
		"question":    "What is this about?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	prettyPrint(askBody)

	// 4. Wait for the answer and read history
	color.Yellow("\n4. History after resolution")
	time.Sleep(2 * time.Second)
	_, histBody, err := sendJSON("GET", "/qa/v1/history?document_id="+docId, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	prettyPrint(histBody)

	// 5. Export
	color.Yellow("\n5. Export history")
	_, exportBody, err := sendJSON("GET", "/qa/v1/export?document_id="+docId, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(exportBody))

	// 6. Notifications still pending
	color.Yellow("\n6. Pending notifications")
	_, notifBody, err := sendJSON("GET", "/notification/v1", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	prettyPrint(notifBody)

	color.Green("\nDone.")
}
