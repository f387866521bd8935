package sqlinline

const donationColumns = `id, donor_id, ngo_id, items, pickup_address, pickup_option, pickup_date, pickup_time, notes, status, rejection_reason, completed_at, created_at, updated_at`

const QInsertDonation = `--sql be38c0d9-b051-495a-8724-96c983c0553a
insert into donations (id, donor_id, items, pickup_address, pickup_option, pickup_date, pickup_time, notes, status, created_at, updated_at)
values ($1::uuid, $2::uuid, coalesce($3::jsonb, '[]'::jsonb), $4::text, $5::text, $6::date, $7::text, $8::text, 'Pending', now(), now())
returning created_at, updated_at;
`

const QSelectDonationByID = `--sql b5a9cb0a-449c-4dfc-98cc-be64bd762d33
select ` + donationColumns + `
from donations
where id = $1::uuid
limit 1;
`

// QListDonations filters by donor ($1), by assigned NGO ($2) optionally widened
// to the open Pending pool ($3), and by status ($4). Empty values do not filter.
const QListDonations = `--sql 595f2d90-4d7c-4208-bb47-a0448a160a9f
select ` + donationColumns + `
from donations
where (nullif($1::text, '') is null or donor_id = nullif($1::text, '')::uuid)
  and (nullif($2::text, '') is null
       or ngo_id = nullif($2::text, '')::uuid
       or ($3::bool and status = 'Pending' and ngo_id is null))
  and ($4::text = '' or status = $4::text)
order by created_at desc;
`

// QTransitionDonation is a compare-and-set: it only touches the row while it is
// still in the expected status and unassigned or assigned to the acting NGO.
const QTransitionDonation = `--sql 75fb3cd2-4f55-4e11-b77f-bc6b41cd15f8
update donations
set status = $3::text,
    ngo_id = $4::uuid,
    rejection_reason = case when $3::text = 'Rejected' then $5::text else rejection_reason end,
    completed_at = case when $3::text = 'Completed' then $6::timestamptz else completed_at end,
    updated_at = $7::timestamptz
where id = $1::uuid
  and status = $2::text
  and (ngo_id is null or ngo_id = $4::uuid)
returning ` + donationColumns + `;
`
