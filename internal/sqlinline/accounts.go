package sqlinline

const accountColumns = `id, kind, email, password_hash, mobile, first_name, last_name, name, registration_number, address, items_accepted, created_at, updated_at`

const QInsertAccount = `--sql 6cebfe1b-1351-4bbe-a9da-a54d4259d106
insert into accounts (id, kind, email, password_hash, mobile, first_name, last_name, name, registration_number, address, items_accepted, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, $9::text, $10::text, coalesce($11::text[], '{}'::text[]), now(), now())
returning created_at, updated_at;
`

const QSelectAccountByID = `--sql b1fd7637-b553-45a6-bde8-6b3dca12bb9a
select ` + accountColumns + `
from accounts
where id = $1::uuid
limit 1;
`

const QSelectAccountByEmail = `--sql 9fc4c7e2-8969-4344-bbb6-7f13847d32bc
select ` + accountColumns + `
from accounts
where email = $1::text
limit 1;
`

const QUpdateAccountPassword = `--sql 98ae037e-c8b8-4cf1-ae40-1160dce5901b
update accounts
set password_hash = $2::text, updated_at = now()
where id = $1::uuid;
`
