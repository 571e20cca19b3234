package notify

import (
	"context"
	"log"
	"os"
	"sync"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// Job adalah satu push notification yang mau dikirim
type Job struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Notifier mengirim FCM lewat pool worker ber-buffer, jadi handler
// tinggal Submit dan lanjut; FCM yang lemot tidak pernah menahan
// jalur claim/complete. Best-effort: kalau buffer penuh ya di-drop.
type Notifier struct {
	client *messaging.Client
	jobs   chan Job
	wg     sync.WaitGroup
}

// NewNotifier inisialisasi Firebase dari file service account.
// Kalau file-nya tidak ada (misal di dev), notifier tetap jalan
// tapi semua kiriman jadi no-op.
func NewNotifier(bufferSize int) *Notifier {
	n := &Notifier{jobs: make(chan Job, bufferSize)}

	credPath := os.Getenv("FCM_CREDENTIALS")
	if credPath == "" {
		credPath = "serviceAccountKey.json"
	}
	if _, err := os.Stat(credPath); err != nil {
		log.Println("FCM credentials tidak ditemukan, push notification dimatikan")
		return n
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsFile(credPath))
	if err != nil {
		log.Printf("Gagal init firebase: %v", err)
		return n
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("Gagal init FCM client: %v", err)
		return n
	}

	n.client = client
	log.Println("Firebase Cloud Messaging Ready!")
	return n
}

// Start menyalakan worker pengirim
func (n *Notifier) Start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		n.wg.Add(1)
		go n.worker()
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()

	for job := range n.jobs {
		n.send(job)
	}
}

// Submit antri satu notifikasi. Return false kalau buffer penuh
func (n *Notifier) Submit(job Job) bool {
	select {
	case n.jobs <- job:
		return true
	default:
		return false
	}
}

func (n *Notifier) Shutdown() {
	close(n.jobs)
	n.wg.Wait()
}

func (n *Notifier) send(job Job) {
	if n.client == nil || job.Token == "" {
		return
	}

	msg := &messaging.Message{
		Token: job.Token,
		Notification: &messaging.Notification{
			Title: job.Title,
			Body:  job.Body,
		},
		Data: job.Data,
	}

	if _, err := n.client.Send(context.Background(), msg); err != nil {
		log.Printf("Gagal kirim notifikasi: %v", err)
	}
}
